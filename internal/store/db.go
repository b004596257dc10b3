package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Classification{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveClassification creates one classification audit row.
func (d *Database) SaveClassification(c *Classification) error {
	if d == nil {
		return errors.New("database is nil")
	}
	if c == nil {
		return errors.New("classification is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(c).Error
}

// ListClassifications returns recent rows, newest first, optionally filtered
// by label. A non-positive limit falls back to 50.
func (d *Database) ListClassifications(label string, limit int) ([]Classification, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	query := d.gorm.Model(&Classification{}).Order("created_at DESC").Limit(limit)
	if label = strings.TrimSpace(label); label != "" {
		query = query.Where("label = ?", label)
	}
	var rows []Classification
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByLabel returns per-label row counts.
func (d *Database) CountByLabel() (map[string]int64, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	type row struct {
		Label string
		Total int64
	}
	var rows []row
	if err := d.gorm.Model(&Classification{}).
		Select("label, count(*) as total").
		Group("label").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] = r.Total
	}
	return out, nil
}
