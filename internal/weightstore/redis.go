package weightstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"troskovnik-service/internal/workbook/model"
)

// RedisWriter keeps one hash per code under a key prefix.
type RedisWriter struct {
	client *redis.Client
	prefix string
}

func NewRedisWriter(addr, password string, db int) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisWriter{client: client, prefix: "weight:"}, nil
}

func (w *RedisWriter) Name() string { return "redis" }

func (w *RedisWriter) Push(ctx context.Context, e model.WeightEntry) error {
	if err := w.client.HSet(ctx, w.prefix+e.Code, entryFields(e)).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", e.Code, err)
	}
	return nil
}

func (w *RedisWriter) Load(ctx context.Context) ([]model.WeightEntry, error) {
	var out []model.WeightEntry
	iter := w.client.Scan(ctx, 0, w.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := w.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
		}
		out = append(out, entryFromFields(strings.TrimPrefix(key, w.prefix), fields))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}

func (w *RedisWriter) Close() error { return w.client.Close() }

func entryFields(e model.WeightEntry) map[string]interface{} {
	return map[string]interface{}{
		"weight_kg":    strconv.FormatFloat(e.WeightKg, 'f', -1, 64),
		"group":        e.Group,
		"name":         e.Name,
		"unit":         e.Unit,
		"tarifni_broj": e.TarifniBroj,
		"pdv_stopa":    strconv.FormatFloat(e.PdvStopa, 'f', -1, 64),
		"supplier":     e.Supplier,
	}
}

func entryFromFields(code string, f map[string]string) model.WeightEntry {
	kg, _ := strconv.ParseFloat(f["weight_kg"], 64)
	vat, _ := strconv.ParseFloat(f["pdv_stopa"], 64)
	return model.WeightEntry{
		Code:        code,
		WeightKg:    kg,
		Group:       f["group"],
		Name:        f["name"],
		Unit:        f["unit"],
		TarifniBroj: f["tarifni_broj"],
		PdvStopa:    vat,
		Supplier:    f["supplier"],
	}
}
