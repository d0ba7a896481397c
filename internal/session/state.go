package session

import (
	"time"

	"github.com/abhisek/cardbot/internal/store"
)

// Direction selects which side of a card is the prompt.
type Direction int

const (
	Forward Direction = iota // word shown, translation expected
	Reverse                  // translation shown, word expected
)

// Prompt returns the side of c shown to the learner.
func (d Direction) Prompt(c *store.Card) string {
	if d == Reverse {
		return c.Translation
	}
	return c.Word
}

// Expected returns the side of c the learner has to produce.
func (d Direction) Expected(c *store.Card) string {
	if d == Reverse {
		return c.Word
	}
	return c.Translation
}

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Policy selects how the next card is drawn.
type Policy int

const (
	// Random draws uniformly, with replacement, from the live card list
	// matching the session's filter.
	Random Policy = iota

	// Sequential walks the id list captured when the session started.
	Sequential
)

func (p Policy) String() string {
	if p == Sequential {
		return "sequential"
	}
	return "random"
}

// Mode is fixed when a session starts.
type Mode int

const (
	ShowReveal Mode = iota // card shown with reveal/next/end buttons
	TypedInput             // learner types the answer
)

// Session is one user's active drill.
type Session struct {
	Filter    store.SetFilter `json:"filter"`
	Direction Direction       `json:"direction"`
	Policy    Policy          `json:"policy"`
	Mode      Mode            `json:"mode"`

	// Goal is the number of resolutions that completes the session;
	// zero means no goal.
	Goal int `json:"goal,omitempty"`

	// Viewed counts resolved cards and only ever grows.
	Viewed int `json:"viewed"`

	// Snapshot and Cursor are used by Sequential sessions. Cursor is the
	// index of the next entry to draw.
	Snapshot []int64 `json:"snapshot,omitempty"`
	Cursor   int     `json:"cursor,omitempty"`

	// Current is the id of the card on screen.
	Current int64 `json:"current"`

	StartedAt time.Time `json:"started_at"`
}

// GoalReached reports whether a goal is set and has been met.
func (s *Session) GoalReached() bool {
	return s != nil && s.Goal > 0 && s.Viewed >= s.Goal
}

// Options configures a new session.
type Options struct {
	Filter    store.SetFilter
	Direction Direction
	Policy    Policy
	Mode      Mode
	Goal      int
}
