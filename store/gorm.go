package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// insertBatchSize keeps multi-row inserts under SQLite's bound-variable limit.
const insertBatchSize = 500

// document is the single table behind every SQL-backed collection. Records are kept as JSON so
// the product and order shapes stay identical across backends.
type document struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:191"`
	Position   int64  `gorm:"index"`
	Data       string `gorm:"type:text;not null"`
	UpdatedAt  time.Time
}

func (document) TableName() string { return "documents" }

// OpenSQL opens a GORM connection for the sqlite or postgres backend and migrates the document table.
func OpenSQL(backend, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch backend {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(NormalizeDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", backend)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return db, nil
}

// NormalizeDSN trims quotes and whitespace and defaults sslmode for key=value postgres DSNs.
func NormalizeDSN(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	lower := strings.ToLower(s)
	if s == "" || strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if strings.Contains(cleaned, "=") && !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}

// GormCollection stores one named collection in the shared documents table.
type GormCollection[T any] struct {
	db   *gorm.DB
	name string
	key  KeyFunc[T]
}

// NewGormCollection binds a collection name to an open database.
func NewGormCollection[T any](db *gorm.DB, name string, key KeyFunc[T]) *GormCollection[T] {
	return &GormCollection[T]{db: db, name: name, key: key}
}

func (c *GormCollection[T]) All(ctx context.Context) ([]T, error) {
	var rows []document
	if err := c.db.WithContext(ctx).
		Where("collection = ?", c.name).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := json.Unmarshal([]byte(row.Data), &item); err != nil {
			return nil, fmt.Errorf("failed to parse %s/%s: %w", c.name, row.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *GormCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var row document
	err := c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s/%s: %w", c.name, id, err)
	}
	var item T
	if err := json.Unmarshal([]byte(row.Data), &item); err != nil {
		return zero, fmt.Errorf("failed to parse %s/%s: %w", c.name, id, err)
	}
	return item, nil
}

func (c *GormCollection[T]) Put(ctx context.Context, items ...T) error {
	if len(items) == 0 {
		return nil
	}
	rows, err := c.rows(items)
	if err != nil {
		return err
	}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).CreateInBatches(&rows, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", c.name, err)
	}
	return nil
}

func (c *GormCollection[T]) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).
		Where("collection = ? AND id IN ?", c.name, ids).
		Delete(&document{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	return nil
}

func (c *GormCollection[T]) Replace(ctx context.Context, items []T) error {
	rows, err := c.rows(items)
	if err != nil {
		return err
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", c.name).Delete(&document{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", c.name, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to restore %s: %w", c.name, err)
		}
		return nil
	})
}

func (c *GormCollection[T]) rows(items []T) ([]document, error) {
	now := time.Now().UTC()
	base := now.UnixNano()
	rows := make([]document, 0, len(items))
	for i, item := range items {
		k := c.key(item)
		if k == "" {
			return nil, errors.New("record key is empty")
		}
		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s/%s: %w", c.name, k, err)
		}
		rows = append(rows, document{
			Collection: c.name,
			ID:         k,
			Position:   base + int64(i),
			Data:       string(data),
			UpdatedAt:  now,
		})
	}
	return rows, nil
}
