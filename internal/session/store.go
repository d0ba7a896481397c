package session

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/cardbot/internal/keyed"
)

// Store holds at most one Session per user. Implementations hand out
// copies, so callers may mutate what they receive.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, bool, error)

	// Put replaces any existing session.
	Put(ctx context.Context, userID int64, s *Session) error

	// Delete removes the session; deleting an absent one is not an error.
	Delete(ctx context.Context, userID int64) error

	// Update runs fn atomically for userID. fn receives nil when there is
	// no session; returning nil deletes it. If fn fails nothing changes.
	Update(ctx context.Context, userID int64, fn func(*Session) (*Session, error)) (*Session, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	m keyed.Map[int64, Session]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*Session, bool, error) {
	sess, ok := s.m.Get(userID)
	if !ok {
		return nil, false, nil
	}
	return &sess, true, nil
}

func (s *MemoryStore) Put(_ context.Context, userID int64, sess *Session) error {
	s.m.Set(userID, *sess)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.m.Delete(userID)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, userID int64, fn func(*Session) (*Session, error)) (*Session, error) {
	v, ok, err := s.m.Update(userID, apply(fn))
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// RedisStore shares sessions between bot replicas.
type RedisStore struct {
	m *keyed.RedisMap[int64, Session]
}

func NewRedisStore(rdb goredis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{m: keyed.NewRedisMap[int64, Session](rdb, prefix+"session:")}
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*Session, bool, error) {
	sess, ok, err := s.m.Get(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &sess, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID int64, sess *Session) error {
	return s.m.Set(ctx, userID, *sess)
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	return s.m.Delete(ctx, userID)
}

func (s *RedisStore) Update(ctx context.Context, userID int64, fn func(*Session) (*Session, error)) (*Session, error) {
	v, ok, err := s.m.Update(ctx, userID, apply(fn))
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// apply adapts a pointer-style session update to the keyed value form.
func apply(fn func(*Session) (*Session, error)) func(Session, bool) (Session, bool, error) {
	return func(cur Session, ok bool) (Session, bool, error) {
		var in *Session
		if ok {
			c := cur
			in = &c
		}
		out, err := fn(in)
		if err != nil {
			return cur, ok, err
		}
		if out == nil {
			return Session{}, false, nil
		}
		return *out, true, nil
	}
}
