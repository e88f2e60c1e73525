package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type note struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func (n *note) GetID() string   { return n.ID }
func (n *note) SetID(id string) { n.ID = id }

func newRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBackend(rdb, WithMaxRetries(50))
}

func newSQLBackend(t *testing.T) *SQLBackend {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every goroutine on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	b, err := NewSQLBackend(db, WithMaxRetries(50))
	require.NoError(t, err)
	return b
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"redis":  newRedisBackend(t),
		"sqlite": newSQLBackend(t),
	}
}

func TestCollectionContract(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			notes, err := Open[*note](b, "notes")
			require.NoError(t, err)

			t.Run("GetMissing", func(t *testing.T) {
				_, err := notes.Get(ctx, "nope")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("CreateAndGet", func(t *testing.T) {
				require.NoError(t, notes.Create(ctx, &note{ID: "a", Title: "first"}))
				got, err := notes.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, "first", got.Title)
			})

			t.Run("CreateDuplicate", func(t *testing.T) {
				err := notes.Create(ctx, &note{ID: "a", Title: "again"})
				assert.ErrorIs(t, err, ErrAlreadyExists)
				got, _ := notes.Get(ctx, "a")
				assert.Equal(t, "first", got.Title)
			})

			t.Run("ReplaceMissing", func(t *testing.T) {
				assert.ErrorIs(t, notes.Replace(ctx, &note{ID: "ghost"}), ErrNotFound)
			})

			t.Run("Replace", func(t *testing.T) {
				require.NoError(t, notes.Replace(ctx, &note{ID: "a", Title: "replaced"}))
				got, err := notes.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, "replaced", got.Title)
			})

			t.Run("UpsertInsertsThenReplaces", func(t *testing.T) {
				require.NoError(t, notes.Upsert(ctx, &note{ID: "b", Title: "v1"}))
				require.NoError(t, notes.Upsert(ctx, &note{ID: "b", Title: "v2"}))
				got, err := notes.Get(ctx, "b")
				require.NoError(t, err)
				assert.Equal(t, "v2", got.Title)
			})

			t.Run("List", func(t *testing.T) {
				all, err := notes.List(ctx)
				require.NoError(t, err)
				require.Len(t, all, 2)
				assert.Equal(t, "a", all[0].ID)
				assert.Equal(t, "b", all[1].ID)
			})

			t.Run("MutateAppliesChange", func(t *testing.T) {
				got, err := notes.Mutate(ctx, "a", func(n *note) error {
					n.Tags = append(n.Tags, "x")
					return nil
				})
				require.NoError(t, err)
				assert.Equal(t, []string{"x"}, got.Tags)

				stored, _ := notes.Get(ctx, "a")
				assert.Equal(t, []string{"x"}, stored.Tags)
			})

			t.Run("MutateCallbackErrorAbortsWrite", func(t *testing.T) {
				boom := errors.New("boom")
				_, err := notes.Mutate(ctx, "a", func(n *note) error {
					n.Title = "should not persist"
					return boom
				})
				assert.ErrorIs(t, err, boom)
				stored, _ := notes.Get(ctx, "a")
				assert.Equal(t, "replaced", stored.Title)
			})

			t.Run("MutateSkipWrite", func(t *testing.T) {
				got, err := notes.Mutate(ctx, "a", func(n *note) error {
					n.Title = "ignored"
					return ErrSkipWrite
				})
				require.NoError(t, err)
				assert.Equal(t, "ignored", got.Title)
				stored, _ := notes.Get(ctx, "a")
				assert.Equal(t, "replaced", stored.Title)
			})

			t.Run("MutateKeepsID", func(t *testing.T) {
				got, err := notes.Mutate(ctx, "a", func(n *note) error {
					n.ID = "hijack"
					return nil
				})
				require.NoError(t, err)
				assert.Equal(t, "a", got.ID)
				_, err = notes.Get(ctx, "hijack")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("MutateMissing", func(t *testing.T) {
				_, err := notes.Mutate(ctx, "ghost", func(*note) error { return nil })
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("Delete", func(t *testing.T) {
				require.NoError(t, notes.Delete(ctx, "b"))
				assert.ErrorIs(t, notes.Delete(ctx, "b"), ErrNotFound)
				all, err := notes.List(ctx)
				require.NoError(t, err)
				assert.Len(t, all, 1)
			})
		})
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			left, err := Open[*note](b, "left")
			require.NoError(t, err)
			right, err := Open[*note](b, "right")
			require.NoError(t, err)

			require.NoError(t, left.Create(ctx, &note{ID: "same", Title: "left"}))
			require.NoError(t, right.Create(ctx, &note{ID: "same", Title: "right"}))

			l, _ := left.Get(ctx, "same")
			r, _ := right.Get(ctx, "same")
			assert.Equal(t, "left", l.Title)
			assert.Equal(t, "right", r.Title)
		})
	}
}

func TestMutateConcurrentWritersAllLand(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			notes, err := Open[*note](b, "busy")
			require.NoError(t, err)
			require.NoError(t, notes.Create(ctx, &note{ID: "n"}))

			const writers = 10
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := range writers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := notes.Mutate(ctx, "n", func(n *note) error {
						n.Tags = append(n.Tags, fmt.Sprintf("t%d", i))
						return nil
					})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			got, err := notes.Get(ctx, "n")
			require.NoError(t, err)
			assert.Len(t, got.Tags, writers)
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open[*note](fakeBackend{}, "x")
	assert.Error(t, err)
}

type fakeBackend struct{}

func (fakeBackend) Name() string { return "fake" }
