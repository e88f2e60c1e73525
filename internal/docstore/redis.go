package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each document as a JSON string plus one id set per
// collection. Conditional writes use WATCH/MULTI.
type RedisBackend struct {
	rdb  *redis.Client
	opts options
}

// NewRedisBackend returns a backend on rdb.
func NewRedisBackend(rdb *redis.Client, opts ...Option) *RedisBackend {
	return &RedisBackend{rdb: rdb, opts: buildOptions(opts)}
}

func (b *RedisBackend) Name() string { return "redis" }

type redisCollection[T Document] struct {
	rdb        *redis.Client
	name       string
	prefix     string
	maxRetries int
}

func newRedisCollection[T Document](b *RedisBackend, name string) *redisCollection[T] {
	return &redisCollection[T]{
		rdb:        b.rdb,
		name:       name,
		prefix:     b.opts.keyPrefix + ":" + name,
		maxRetries: b.opts.maxRetries,
	}
}

func (c *redisCollection[T]) Name() string { return c.name }

func (c *redisCollection[T]) key(id string) string { return c.prefix + ":" + id }
func (c *redisCollection[T]) indexKey() string     { return c.prefix + ":_ids" }

func decode[T Document](raw []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (c *redisCollection[T]) Get(ctx context.Context, id string) (T, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		var zero T
		return zero, ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return decode[T](raw)
}

func (c *redisCollection[T]) List(ctx context.Context) ([]T, error) {
	ids, err := c.rdb.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	if len(ids) == 0 {
		return []T{}, nil
	}
	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}

	docs := make([]T, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// deleted between SMEMBERS and MGET
			continue
		}
		doc, err := decode[T]([]byte(s))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *redisCollection[T]) Create(ctx context.Context, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	key := c.key(doc.GetID())

	_, err = retryOnConflict(ctx, c.maxRetries, func() (struct{}, error) {
		return struct{}{}, c.watch(ctx, key, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrAlreadyExists
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				pipe.SAdd(ctx, c.indexKey(), doc.GetID())
				return nil
			})
			return err
		})
	})
	return err
}

func (c *redisCollection[T]) Replace(ctx context.Context, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	key := c.key(doc.GetID())

	_, err = retryOnConflict(ctx, c.maxRetries, func() (struct{}, error) {
		return struct{}{}, c.watch(ctx, key, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		})
	})
	return err
}

func (c *redisCollection[T]) Upsert(ctx context.Context, doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(doc.GetID()), data, 0)
		pipe.SAdd(ctx, c.indexKey(), doc.GetID())
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c.name, doc.GetID(), err)
	}
	return nil
}

func (c *redisCollection[T]) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, c.key(id))
		pipe.SRem(ctx, c.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *redisCollection[T]) Mutate(ctx context.Context, id string, fn func(doc T) error) (T, error) {
	key := c.key(id)

	return retryOnConflict(ctx, c.maxRetries, func() (T, error) {
		var out T
		err := c.watch(ctx, key, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			doc, err := decode[T](raw)
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				if errors.Is(err, ErrSkipWrite) {
					out = doc
					return nil
				}
				return err
			}
			doc.SetID(id)
			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			}); err != nil {
				return err
			}
			out = doc
			return nil
		})
		return out, err
	})
}

// watch runs fn under WATCH key and maps an aborted EXEC to ErrConflict.
func (c *redisCollection[T]) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	err := c.rdb.Watch(ctx, fn, key)
	if errors.Is(err, redis.TxFailedErr) {
		return conflict("redis", c.name)
	}
	return err
}
