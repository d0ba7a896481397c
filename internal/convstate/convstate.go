// Package convstate tracks, per user, which free-text input the bot is
// waiting for next.
package convstate

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/cardbot/internal/keyed"
)

// Kind discriminates a State.
type Kind int

const (
	None Kind = iota
	AwaitingCardEdit
	AwaitingSetName
	AwaitingNewCard
	AwaitingTypedAnswer
)

var kindNames = map[Kind]string{
	None:                "none",
	AwaitingCardEdit:    "awaiting_card_edit",
	AwaitingSetName:     "awaiting_set_name",
	AwaitingNewCard:     "awaiting_new_card",
	AwaitingTypedAnswer: "awaiting_typed_answer",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// State is the tagged conversation state of one user. CardID is set only
// for AwaitingCardEdit and AwaitingTypedAnswer.
type State struct {
	Kind   Kind  `json:"kind"`
	CardID int64 `json:"card_id,omitempty"`
}

func EditCard(cardID int64) State    { return State{Kind: AwaitingCardEdit, CardID: cardID} }
func SetName() State                 { return State{Kind: AwaitingSetName} }
func NewCard() State                 { return State{Kind: AwaitingNewCard} }
func TypedAnswer(cardID int64) State { return State{Kind: AwaitingTypedAnswer, CardID: cardID} }

// Awaiting reports whether the state consumes the next free-text message.
func (s State) Awaiting() bool { return s.Kind != None }

// Store holds at most one State per user. Setting a state replaces the
// previous one; there is no stacking.
type Store interface {
	// Get returns the user's state, or State{Kind: None} when unset.
	Get(ctx context.Context, userID int64) (State, error)

	Set(ctx context.Context, userID int64, s State) error

	// Clear removes any state. Clearing an absent state is not an error.
	Clear(ctx context.Context, userID int64) error

	// Update applies fn atomically with respect to other calls for the
	// same user and returns the stored result.
	Update(ctx context.Context, userID int64, fn func(State) State) (State, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	m keyed.Map[int64, State]
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (State, error) {
	st, _ := s.m.Get(userID)
	return st, nil
}

func (s *MemoryStore) Set(ctx context.Context, userID int64, st State) error {
	if !st.Awaiting() {
		return s.Clear(ctx, userID)
	}
	s.m.Set(userID, st)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID int64) error {
	s.m.Delete(userID)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, userID int64, fn func(State) State) (State, error) {
	st, _, err := s.m.Update(userID, func(cur State, _ bool) (State, bool, error) {
		next := fn(cur)
		return next, next.Awaiting(), nil
	})
	return st, err
}

// RedisStore shares conversation state between bot replicas.
type RedisStore struct {
	m *keyed.RedisMap[int64, State]
}

// NewRedisStore returns a RedisStore keeping states under prefix.
func NewRedisStore(rdb goredis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{m: keyed.NewRedisMap[int64, State](rdb, prefix+"convstate:")}
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	st, _, err := s.m.Get(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("get conversation state: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Set(ctx context.Context, userID int64, st State) error {
	if !st.Awaiting() {
		return s.Clear(ctx, userID)
	}
	return s.m.Set(ctx, userID, st)
}

func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	return s.m.Delete(ctx, userID)
}

func (s *RedisStore) Update(ctx context.Context, userID int64, fn func(State) State) (State, error) {
	st, _, err := s.m.Update(ctx, userID, func(cur State, _ bool) (State, bool, error) {
		next := fn(cur)
		return next, next.Awaiting(), nil
	})
	if err != nil {
		return State{}, fmt.Errorf("update conversation state: %w", err)
	}
	return st, nil
}
