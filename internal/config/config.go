package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
	LogLevel     string   `yaml:"log_level"`
	MaxUploadMB  int      `yaml:"max_upload_mb"`
	LogFile      string   `yaml:"log_file"`

	Search SearchConfig `yaml:"search"`
	Weight WeightConfig `yaml:"weight"`
}

type SearchConfig struct {
	SortOrder    string        `yaml:"sort_order"` // weight | line
	Cap          int           `yaml:"cap"`
	HistoryCap   int           `yaml:"history_cap"`
	LiveDebounce time.Duration `yaml:"live_debounce"`
	RotoSupplier string        `yaml:"roto_supplier"`
	DefaultVat   float64       `yaml:"default_vat"`
}

// WeightConfig selects where weight-table edits are pushed.
type WeightConfig struct {
	Store         string        `yaml:"store"` // none | sqlite | postgres | sheets | redis
	DBPath        string        `yaml:"db_path"`
	DSN           string        `yaml:"dsn"`
	SheetsID      string        `yaml:"sheets_id"`
	SheetsRange   string        `yaml:"sheets_range"`
	Credentials   string        `yaml:"credentials"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	PushTimeout   time.Duration `yaml:"push_timeout"`
}

func Default() Config {
	return Config{
		Host:         "127.0.0.1",
		Port:         8082,
		AllowOrigins: []string{"*"},
		LogLevel:     "info",
		MaxUploadMB:  256,
		LogFile:      "logs/troskovnik-service.log",
		Search: SearchConfig{
			SortOrder:    "weight",
			Cap:          24,
			HistoryCap:   5,
			LiveDebounce: 300 * time.Millisecond,
			RotoSupplier: "Roto",
			DefaultVat:   25,
		},
		Weight: WeightConfig{
			Store:       "none",
			DBPath:      "data/weights.db",
			SheetsRange: "Tezine",
			Credentials: "credentials.json",
			PushTimeout: 10 * time.Second,
		},
	}
}

// Load: defaults, then the YAML file named by CONFIG_FILE (if any), then the environment.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(k string, dst *string) {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
	num := func(k string, dst *int) {
		if v := os.Getenv(k); v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				return
			}
			*dst = n
		}
	}
	dur := func(k string, dst *time.Duration) {
		if v := os.Getenv(k); v != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", k, err))
				return
			}
			*dst = d
		}
	}

	str("HOST", &c.Host)
	num("PORT", &c.Port)
	if v := os.Getenv("ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = strings.Split(v, ",")
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	num("MAX_UPLOAD_MB", &c.MaxUploadMB)

	str("SORT_ORDER", &c.Search.SortOrder)
	num("SEARCH_CAP", &c.Search.Cap)
	num("HISTORY_CAP", &c.Search.HistoryCap)
	dur("LIVE_DEBOUNCE", &c.Search.LiveDebounce)
	str("ROTO_SUPPLIER", &c.Search.RotoSupplier)
	if v := os.Getenv("DEFAULT_VAT"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_VAT: %w", err))
		} else {
			c.Search.DefaultVat = f
		}
	}

	str("WEIGHT_STORE", &c.Weight.Store)
	str("WEIGHT_DB_PATH", &c.Weight.DBPath)
	str("WEIGHT_DB_DSN", &c.Weight.DSN)
	str("SHEETS_ID", &c.Weight.SheetsID)
	str("SHEETS_RANGE", &c.Weight.SheetsRange)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.Weight.Credentials)
	str("REDIS_ADDR", &c.Weight.RedisAddr)
	str("REDIS_PASSWORD", &c.Weight.RedisPassword)
	num("REDIS_DB", &c.Weight.RedisDB)
	dur("WEIGHT_PUSH_TIMEOUT", &c.Weight.PushTimeout)

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("max upload %d MB must be positive", c.MaxUploadMB))
	}
	switch strings.ToLower(c.Search.SortOrder) {
	case "weight", "line":
	default:
		errs = append(errs, fmt.Errorf("sort order %q: want weight or line", c.Search.SortOrder))
	}
	if c.Search.Cap < 0 || c.Search.HistoryCap < 0 {
		errs = append(errs, errors.New("search caps must not be negative"))
	}
	if c.Search.DefaultVat != 25 && c.Search.DefaultVat != 5 {
		errs = append(errs, fmt.Errorf("default VAT %v: want 25 or 5", c.Search.DefaultVat))
	}
	switch strings.ToLower(c.Weight.Store) {
	case "", "none":
	case "sqlite":
		if c.Weight.DBPath == "" {
			errs = append(errs, errors.New("WEIGHT_DB_PATH required for sqlite weight store"))
		}
	case "postgres":
		if c.Weight.DSN == "" {
			errs = append(errs, errors.New("WEIGHT_DB_DSN required for postgres weight store"))
		}
	case "sheets":
		if c.Weight.SheetsID == "" {
			errs = append(errs, errors.New("SHEETS_ID required for sheets weight store"))
		}
	case "redis":
		if c.Weight.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR required for redis weight store"))
		}
	default:
		errs = append(errs, fmt.Errorf("weight store %q: want none, sqlite, postgres, sheets or redis", c.Weight.Store))
	}
	if c.Weight.PushTimeout <= 0 {
		errs = append(errs, errors.New("weight push timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
