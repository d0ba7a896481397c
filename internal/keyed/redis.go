package keyed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic retries when a watched key changes
// between read and write.
const maxTxRetries = 32

// ErrContended is returned when Update loses the optimistic race too many
// times in a row.
var ErrContended = errors.New("keyed: too much contention")

// RedisMap is the shared-storage counterpart of Map. Values are stored as
// JSON under prefix+key, and Update runs as a WATCH/MULTI transaction so
// concurrent writers to the same key never interleave.
type RedisMap[K comparable, V any] struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisMap returns a RedisMap storing keys under prefix.
func NewRedisMap[K comparable, V any](rdb goredis.UniversalClient, prefix string) *RedisMap[K, V] {
	return &RedisMap[K, V]{rdb: rdb, prefix: prefix}
}

func (m *RedisMap[K, V]) key(k K) string {
	return fmt.Sprintf("%s%v", m.prefix, k)
}

// Get returns the value stored for key.
func (m *RedisMap[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	return decode[V](m.rdb.Get(ctx, m.key(key)))
}

// Set stores value for key, replacing any previous value.
func (m *RedisMap[K, V]) Set(ctx context.Context, key K, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.key(key), err)
	}
	if err := m.rdb.Set(ctx, m.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", m.key(key), err)
	}
	return nil
}

// Delete removes the value for key.
func (m *RedisMap[K, V]) Delete(ctx context.Context, key K) error {
	if err := m.rdb.Del(ctx, m.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", m.key(key), err)
	}
	return nil
}

// Update has the same contract as Map.Update.
func (m *RedisMap[K, V]) Update(ctx context.Context, key K, fn func(cur V, ok bool) (next V, keep bool, err error)) (V, bool, error) {
	k := m.key(key)
	var (
		result V
		kept   bool
	)

	txf := func(tx *goredis.Tx) error {
		cur, ok, err := decode[V](tx.Get(ctx, k))
		if err != nil {
			return err
		}
		next, keep, err := fn(cur, ok)
		if err != nil {
			result, kept = cur, ok
			return err
		}

		var raw []byte
		if keep {
			if raw, err = json.Marshal(next); err != nil {
				return fmt.Errorf("encode %s: %w", k, err)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if keep {
				pipe.Set(ctx, k, raw, 0)
			} else {
				pipe.Del(ctx, k)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !keep {
			var zero V
			next = zero
		}
		result, kept = next, keep
		return nil
	}

	for range maxTxRetries {
		err := m.rdb.Watch(ctx, txf, k)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return result, kept, err
	}
	var zero V
	return zero, false, ErrContended
}

func decode[V any](cmd *goredis.StringCmd) (V, bool, error) {
	var v V
	raw, err := cmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode: %w", err)
	}
	return v, true, nil
}
