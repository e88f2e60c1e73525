package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRecord is the row layout shared by every collection.
type documentRecord struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:128"`
	Body       string `gorm:"type:text;not null"`
	Version    int64  `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRecord) TableName() string { return "documents" }

// SQLBackend keeps documents in a single versioned table. Conditional writes
// compare the version column.
type SQLBackend struct {
	db   *gorm.DB
	opts options
}

// NewSQLBackend migrates the documents table and returns the backend.
func NewSQLBackend(db *gorm.DB, opts ...Option) (*SQLBackend, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &SQLBackend{db: db, opts: buildOptions(opts)}, nil
}

func (b *SQLBackend) Name() string { return b.db.Dialector.Name() }

type sqlCollection[T Document] struct {
	db         *gorm.DB
	backend    string
	name       string
	maxRetries int
}

func newSQLCollection[T Document](b *SQLBackend, name string) *sqlCollection[T] {
	return &sqlCollection[T]{db: b.db, backend: b.Name(), name: name, maxRetries: b.opts.maxRetries}
}

func (c *sqlCollection[T]) Name() string { return c.name }

func (c *sqlCollection[T]) scope(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).Model(&documentRecord{}).Where("collection = ?", c.name)
}

func (c *sqlCollection[T]) load(ctx context.Context, id string) (*documentRecord, error) {
	var rec documentRecord
	err := c.scope(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return &rec, nil
}

func (c *sqlCollection[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := c.load(ctx, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T]([]byte(rec.Body))
}

func (c *sqlCollection[T]) List(ctx context.Context) ([]T, error) {
	var recs []documentRecord
	if err := c.scope(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	docs := make([]T, 0, len(recs))
	for _, rec := range recs {
		doc, err := decode[T]([]byte(rec.Body))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *sqlCollection[T]) Create(ctx context.Context, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	rec := documentRecord{Collection: c.name, ID: doc.GetID(), Body: string(body), Version: 1}
	res := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("create %s/%s: %w", c.name, doc.GetID(), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (c *sqlCollection[T]) Replace(ctx context.Context, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res := c.scope(ctx).Where("id = ?", doc.GetID()).Updates(map[string]any{
		"body":       string(body),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("replace %s/%s: %w", c.name, doc.GetID(), res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert replaces when the row exists and inserts otherwise. A racing insert
// shows up as a conflict and the replace is tried again.
func (c *sqlCollection[T]) Upsert(ctx context.Context, doc T) error {
	_, err := retryOnConflict(ctx, c.maxRetries, func() (struct{}, error) {
		err := c.Replace(ctx, doc)
		if !errors.Is(err, ErrNotFound) {
			return struct{}{}, err
		}
		if err := c.Create(ctx, doc); errors.Is(err, ErrAlreadyExists) {
			return struct{}{}, conflict(c.backend, c.name)
		} else if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

func (c *sqlCollection[T]) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, id).
		Delete(&documentRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *sqlCollection[T]) Mutate(ctx context.Context, id string, fn func(doc T) error) (T, error) {
	return retryOnConflict(ctx, c.maxRetries, func() (T, error) {
		var zero T
		rec, err := c.load(ctx, id)
		if err != nil {
			return zero, err
		}
		doc, err := decode[T]([]byte(rec.Body))
		if err != nil {
			return zero, err
		}
		if err := fn(doc); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return doc, nil
			}
			return zero, err
		}
		doc.SetID(id)
		body, err := json.Marshal(doc)
		if err != nil {
			return zero, fmt.Errorf("encode document: %w", err)
		}

		res := c.scope(ctx).
			Where("id = ? AND version = ?", id, rec.Version).
			Updates(map[string]any{
				"body":       string(body),
				"version":    rec.Version + 1,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return zero, fmt.Errorf("mutate %s/%s: %w", c.name, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return zero, conflict(c.backend, c.name)
		}
		return doc, nil
	})
}
