// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
	"bigvyapaar/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteStores returns repositories on a fresh in-memory sqlite database.
func NewSQLiteStores(t testing.TB) *repository.Stores {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	backend, err := docstore.NewSQLBackend(db, docstore.WithMaxRetries(50))
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	stores, err := repository.NewStores(backend)
	if err != nil {
		t.Fatalf("Failed to open stores: %v", err)
	}
	return stores
}

// NewRedisStores returns repositories on a miniredis instance plus its client.
func NewRedisStores(t testing.TB) (*repository.Stores, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	stores, err := repository.NewStores(docstore.NewRedisBackend(rdb, docstore.WithMaxRetries(50)))
	if err != nil {
		t.Fatalf("Failed to open stores: %v", err)
	}
	return stores, rdb
}

// SeedUser stores a user with empty embedded lists.
func SeedUser(t testing.TB, users repository.UserRepository, id, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:               id,
		Username:         username,
		PhoneNumber:      "+91" + id,
		Chats:            []models.ChatLink{},
		Requests:         []models.TradeRequest{},
		TradeRequestSent: []string{},
		CreatedAt:        time.Now().UTC(),
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to seed user %s: %v", id, err)
	}
	return u
}

// SeedProduct stores a product owned by ownerID with the given trades.
func SeedProduct(t testing.TB, products repository.ProductRepository, id, ownerID string, bids, asks []models.Trade) *models.Product {
	t.Helper()
	if bids == nil {
		bids = []models.Trade{}
	}
	if asks == nil {
		asks = []models.Trade{}
	}
	p := &models.Product{
		ID:          id,
		ProductName: "Product " + id,
		Category:    "misc",
		CreatedBy:   ownerID,
		CreatedAt:   time.Now().UTC(),
		Bids:        bids,
		Asks:        asks,
	}
	if err := products.Create(context.Background(), p); err != nil {
		t.Fatalf("Failed to seed product %s: %v", id, err)
	}
	return p
}
