package weightstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"troskovnik-service/internal/workbook/model"
)

// DBWriter keeps the weight table in a SQL database (one row per code).
type DBWriter struct {
	db      *gorm.DB
	dialect string
}

func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewDBWriter migrates the weight table schema.
func NewDBWriter(db *gorm.DB) (*DBWriter, error) {
	if err := db.AutoMigrate(&model.WeightEntry{}); err != nil {
		return nil, fmt.Errorf("migrate weight table: %w", err)
	}
	return &DBWriter{db: db, dialect: db.Dialector.Name()}, nil
}

func (w *DBWriter) Name() string { return w.dialect }

// Push upserts the entry by code.
func (w *DBWriter) Push(ctx context.Context, e model.WeightEntry) error {
	err := w.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, UpdateAll: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("upsert weight %s: %w", e.Code, err)
	}
	return nil
}

func (w *DBWriter) Load(ctx context.Context) ([]model.WeightEntry, error) {
	var rows []model.WeightEntry
	if err := w.db.WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	return rows, nil
}
