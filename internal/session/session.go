// Package session runs per-user flash-card drills: starting a session,
// drawing cards by policy, grading typed answers and tracking the goal.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abhisek/cardbot/internal/answer"
	"github.com/abhisek/cardbot/internal/store"
)

var (
	// ErrNoCards is returned by Start when the filter matches no cards.
	ErrNoCards = errors.New("no cards to learn")

	// ErrExhausted is returned when no further card can be drawn.
	ErrExhausted = errors.New("cards exhausted")

	// ErrNoSession is returned when the user has no active session.
	ErrNoSession = errors.New("no active session")
)

// maxRandomDraws bounds retries when a randomly drawn card disappears
// between listing and loading.
const maxRandomDraws = 5

// Rand is the source of randomness for Random sessions.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Cards is the card lookup the controller draws from.
type Cards interface {
	IDs(ctx context.Context, userID int64, f store.SetFilter) ([]int64, error)
	Get(ctx context.Context, userID, cardID int64) (*store.Card, error)
}

// Views records card views.
type Views interface {
	Append(ctx context.Context, userID, cardID int64, at time.Time) error
}

// OutcomeKind says what happened after a card was resolved.
type OutcomeKind int

const (
	OutcomeCard        OutcomeKind = iota // a next card was drawn
	OutcomeGoalReached                    // goal met; session ended
	OutcomeExhausted                      // nothing left to draw; session ended
)

// Outcome of resolving a card.
type Outcome struct {
	Kind   OutcomeKind
	Card   *store.Card // set for OutcomeCard
	Viewed int
	Goal   int
}

// Progress renders the position of the card on screen, or "" without a goal.
func (o Outcome) Progress() string {
	return FormatProgress(o.Viewed, o.Goal)
}

// Result of grading a typed answer.
type Result struct {
	Correct bool

	// Expected is the primary accepted spelling.
	Expected string

	Outcome Outcome
}

// Controller orchestrates learning sessions. It is safe for concurrent
// use; operations on one user are serialised through the Store.
type Controller struct {
	sessions Store
	cards    Cards
	views    Views
	rand     Rand
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand injects the random source.
func WithRand(r Rand) Option {
	return func(c *Controller) { c.rand = r }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a Controller.
func NewController(sessions Store, cards Cards, views Views, opts ...Option) *Controller {
	c := &Controller{
		sessions: sessions,
		cards:    cards,
		views:    views,
		rand:     globalRand{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start creates a session, replacing any existing one, and returns its
// first card.
func (c *Controller) Start(ctx context.Context, userID int64, opts Options) (*store.Card, error) {
	ids, err := c.cards.IDs(ctx, userID, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoCards
	}

	s := &Session{
		Filter:    opts.Filter,
		Direction: opts.Direction,
		Policy:    opts.Policy,
		Mode:      opts.Mode,
		Goal:      max(opts.Goal, 0),
		StartedAt: c.now(),
	}
	if s.Policy == Sequential {
		s.Snapshot = ids
	}

	card, err := c.draw(ctx, userID, s, ids)
	if errors.Is(err, ErrExhausted) {
		return nil, ErrNoCards
	}
	if err != nil {
		return nil, err
	}
	s.Current = card.ID

	if err := c.sessions.Put(ctx, userID, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return card, nil
}

// Next draws a replacement for the card on screen without resolving it.
func (c *Controller) Next(ctx context.Context, userID int64) (*store.Card, error) {
	var card *store.Card
	_, err := c.sessions.Update(ctx, userID, func(s *Session) (*Session, error) {
		if s == nil {
			return nil, ErrNoSession
		}
		next, err := c.draw(ctx, userID, s, nil)
		if err != nil {
			return nil, err
		}
		s.Current = next.ID
		card = next
		return s, nil
	})
	if errors.Is(err, ErrExhausted) {
		if derr := c.sessions.Delete(ctx, userID); derr != nil {
			return nil, derr
		}
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Advance resolves the card on screen, then checks the goal, then draws
// the next card. Sessions that reach their goal or run out of cards are
// ended.
func (c *Controller) Advance(ctx context.Context, userID int64) (Outcome, error) {
	var out Outcome
	err := c.resolve(ctx, userID, func(*Session) {}, &out)
	return out, err
}

// RecordAnswer grades input against card in the session's direction,
// logs the view and resolves the card.
func (c *Controller) RecordAnswer(ctx context.Context, userID int64, card *store.Card, input string) (Result, error) {
	var res Result
	err := c.resolve(ctx, userID, func(s *Session) {
		expected := s.Direction.Expected(card)
		res.Correct = answer.IsCorrect(expected, input)
		res.Expected = answer.Primary(expected)
	}, &res.Outcome)
	if err != nil {
		return Result{}, err
	}
	if err := c.Reveal(ctx, userID, card); err != nil {
		return res, err
	}
	return res, nil
}

// Skip resolves card without an answer and returns the full expected
// side so it can be shown.
func (c *Controller) Skip(ctx context.Context, userID int64, card *store.Card) (string, Outcome, error) {
	var (
		expected string
		out      Outcome
	)
	err := c.resolve(ctx, userID, func(s *Session) {
		expected = s.Direction.Expected(card)
	}, &out)
	if err != nil {
		return "", Outcome{}, err
	}
	if err := c.Reveal(ctx, userID, card); err != nil {
		return expected, out, err
	}
	return expected, out, nil
}

// Reveal logs a view of card. It does not resolve the card and works
// without a session.
func (c *Controller) Reveal(ctx context.Context, userID int64, card *store.Card) error {
	if err := c.views.Append(ctx, userID, card.ID, c.now()); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// Draw picks a random card matching f without touching any session.
func (c *Controller) Draw(ctx context.Context, userID int64, f store.SetFilter) (*store.Card, error) {
	card, err := c.draw(ctx, userID, &Session{Filter: f, Policy: Random}, nil)
	if errors.Is(err, ErrExhausted) {
		return nil, ErrNoCards
	}
	return card, err
}

// GoalReached reports whether the user's session has met its goal.
func (c *Controller) GoalReached(ctx context.Context, userID int64) bool {
	s, ok, err := c.sessions.Get(ctx, userID)
	return err == nil && ok && s.GoalReached()
}

// Direction returns the session's direction, Forward without a session.
func (c *Controller) Direction(ctx context.Context, userID int64) Direction {
	s, ok, err := c.sessions.Get(ctx, userID)
	if err != nil || !ok {
		return Forward
	}
	return s.Direction
}

// Active returns the user's session, if any.
func (c *Controller) Active(ctx context.Context, userID int64) (*Session, bool, error) {
	return c.sessions.Get(ctx, userID)
}

// End removes the session. Ending twice is not an error.
func (c *Controller) End(ctx context.Context, userID int64) error {
	return c.sessions.Delete(ctx, userID)
}

// resolve counts one resolution and fills out. grade runs first, under
// the user's lock, with the session as it was before resolution.
func (c *Controller) resolve(ctx context.Context, userID int64, grade func(*Session), out *Outcome) error {
	_, err := c.sessions.Update(ctx, userID, func(s *Session) (*Session, error) {
		if s == nil {
			return nil, ErrNoSession
		}
		grade(s)
		s.Viewed++
		*out = Outcome{Viewed: s.Viewed, Goal: s.Goal}

		if s.GoalReached() {
			out.Kind = OutcomeGoalReached
			return nil, nil
		}
		card, err := c.draw(ctx, userID, s, nil)
		if errors.Is(err, ErrExhausted) {
			out.Kind = OutcomeExhausted
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		s.Current = card.ID
		out.Kind = OutcomeCard
		out.Card = card
		return s, nil
	})
	return err
}

// draw picks the next card for s, advancing the cursor of a Sequential
// session. Cards deleted since they were listed are skipped. ids, when
// non-nil, is a fresh id list for a Random draw.
func (c *Controller) draw(ctx context.Context, userID int64, s *Session, ids []int64) (*store.Card, error) {
	if s.Policy == Sequential {
		for s.Cursor < len(s.Snapshot) {
			id := s.Snapshot[s.Cursor]
			s.Cursor++
			card, err := c.cards.Get(ctx, userID, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load card %d: %w", id, err)
			}
			return card, nil
		}
		return nil, ErrExhausted
	}

	for range maxRandomDraws {
		if ids == nil {
			var err error
			if ids, err = c.cards.IDs(ctx, userID, s.Filter); err != nil {
				return nil, fmt.Errorf("list cards: %w", err)
			}
		}
		if len(ids) == 0 {
			return nil, ErrExhausted
		}
		id := ids[c.rand.IntN(len(ids))]
		card, err := c.cards.Get(ctx, userID, id)
		if errors.Is(err, store.ErrNotFound) {
			ids = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load card %d: %w", id, err)
		}
		return card, nil
	}
	return nil, ErrExhausted
}
