package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("already exists")
)

// User is a chat-platform user known to the bot.
type User struct {
	ID          int64
	ExternalID  int64 // platform user id
	DisplayName string
	CreatedAt   time.Time
}

// Card is a front/back vocabulary pair.
type Card struct {
	ID          int64
	UserID      int64
	SetID       *int64 // nil when the card belongs to no set
	SetName     string // populated by queries that join the set
	Word        string
	Translation string // may hold several "|"-separated spellings
	Hint        string // optional pronunciation hint
	CreatedAt   time.Time
}

// CardSet is a named, user-owned grouping of cards.
type CardSet struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// CardViewCount pairs a card with how many times it was viewed.
type CardViewCount struct {
	Card  Card
	Views int
}

// LearningStats is the single per-user aggregate row.
type LearningStats struct {
	UserID       int64
	TotalViews   int64
	LastLearned  *time.Time
	LastReminder *time.Time
}

// FilterKind discriminates a SetFilter.
type FilterKind int

const (
	FilterAll   FilterKind = iota // every card of the user
	FilterNoSet                   // only cards without a set
	FilterSet                     // only cards of one set
)

// SetFilter selects which of a user's cards a query covers.
type SetFilter struct {
	Kind  FilterKind
	SetID int64 // meaningful only for FilterSet
}

// AllSets matches every card.
func AllSets() SetFilter { return SetFilter{Kind: FilterAll} }

// NoSet matches cards that belong to no set.
func NoSet() SetFilter { return SetFilter{Kind: FilterNoSet} }

// InSet matches cards of the given set.
func InSet(id int64) SetFilter { return SetFilter{Kind: FilterSet, SetID: id} }

// UserRepo manages users.
type UserRepo interface {
	// FindOrCreate returns the user with the given platform id, creating
	// it on first contact.
	FindOrCreate(ctx context.Context, externalID int64, displayName string) (*User, error)

	// Get returns a user by internal id.
	Get(ctx context.Context, id int64) (*User, error)

	// GetByExternalID returns a user by platform id.
	GetByExternalID(ctx context.Context, externalID int64) (*User, error)
}

// CardRepo manages cards. Every method is scoped by owner; a card that
// belongs to another user is reported as ErrNotFound.
type CardRepo interface {
	Create(ctx context.Context, c *Card) error
	Get(ctx context.Context, userID, cardID int64) (*Card, error)
	Update(ctx context.Context, c *Card) error
	Move(ctx context.Context, userID, cardID int64, setID *int64) error
	Delete(ctx context.Context, userID, cardID int64) error

	// List returns the matching cards ordered by id.
	List(ctx context.Context, userID int64, f SetFilter) ([]Card, error)

	// IDs returns the ids of the matching cards ordered by id.
	IDs(ctx context.Context, userID int64, f SetFilter) ([]int64, error)

	Count(ctx context.Context, userID int64, f SetFilter) (int, error)
}

// SetRepo manages card sets. Names are unique per user, ignoring case.
type SetRepo interface {
	Create(ctx context.Context, userID int64, name string) (*CardSet, error)
	Get(ctx context.Context, userID, setID int64) (*CardSet, error)
	FindByName(ctx context.Context, userID int64, name string) (*CardSet, error)

	// List returns the sets ordered by name.
	List(ctx context.Context, userID int64) ([]CardSet, error)

	// Delete detaches the set's cards and then removes the set.
	Delete(ctx context.Context, userID, setID int64) error
}

// ViewRepo is the append-only view log.
type ViewRepo interface {
	// Append records a view and bumps the user's aggregate in one
	// transaction.
	Append(ctx context.Context, userID, cardID int64, at time.Time) error

	// DistinctCardsSince counts distinct cards viewed at or after since.
	DistinctCardsSince(ctx context.Context, userID int64, since time.Time) (int, error)

	// ViewTimes returns view timestamps at or after since, newest first.
	ViewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)

	// TopCards returns the most viewed existing cards.
	TopCards(ctx context.Context, userID int64, limit int) ([]CardViewCount, error)
}

// LearningStatsRepo manages the per-user aggregate.
type LearningStatsRepo interface {
	// Get returns the aggregate, or a zero-valued one if none exists.
	Get(ctx context.Context, userID int64) (*LearningStats, error)

	// MarkReminded records a delivered reminder, creating the row if needed.
	MarkReminded(ctx context.Context, userID int64, at time.Time) error

	// ReminderCandidates returns users with at least one card whose last
	// learned and last reminder times are both unset or before cutoff.
	ReminderCandidates(ctx context.Context, cutoff time.Time) ([]User, error)
}
