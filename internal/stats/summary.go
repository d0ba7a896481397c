package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/cardbot/internal/store"
)

// TopCardsLimit is how many cards the summary lists by view count.
const TopCardsLimit = 5

// Source is the slice of the persistence layer the summary reads.
type Source interface {
	CountCards(ctx context.Context, userID int64) (int, error)
	TotalViews(ctx context.Context, userID int64) (int64, error)
	ViewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	DistinctCardsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	TopCards(ctx context.Context, userID int64, limit int) ([]store.CardViewCount, error)
}

// Summary is a user's learning overview.
type Summary struct {
	TotalCards int
	TotalViews int64
	Streak     int
	Today      int // distinct cards viewed since UTC midnight
	Week       int // distinct cards viewed in the last 7 days
	Top        []store.CardViewCount
}

// AvgViews returns views per card, or 0 without cards.
func (s *Summary) AvgViews() float64 {
	if s.TotalCards == 0 {
		return 0
	}
	return float64(s.TotalViews) / float64(s.TotalCards)
}

// Text renders the summary as a chat message.
func (s *Summary) Text() string {
	var b strings.Builder
	b.WriteString("📊 Statistics\n\n")
	fmt.Fprintf(&b, "Total cards: %d\n", s.TotalCards)
	fmt.Fprintf(&b, "Viewed: %d times\n", s.TotalViews)
	if s.TotalCards > 0 {
		fmt.Fprintf(&b, "~%.1f views per card\n", s.AvgViews())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Day streak: %d\n", s.Streak)
	fmt.Fprintf(&b, "Today: %d cards\n", s.Today)
	fmt.Fprintf(&b, "This week: %d cards\n", s.Week)
	if len(s.Top) > 0 {
		b.WriteString("\nMost viewed:\n")
		for _, t := range s.Top {
			fmt.Fprintf(&b, "• %s — %s\n", t.Card.Word, t.Card.Translation)
		}
	}
	return b.String()
}

// Service computes summaries.
type Service struct {
	src Source
	now func() time.Time
}

// NewService creates a Service. now may be nil.
func NewService(src Source, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{src: src, now: now}
}

// Summary computes the overview for userID.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	now := s.now().UTC()
	var (
		sum Summary
		err error
	)

	if sum.TotalCards, err = s.src.CountCards(ctx, userID); err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}
	if sum.TotalViews, err = s.src.TotalViews(ctx, userID); err != nil {
		return nil, fmt.Errorf("total views: %w", err)
	}

	times, err := s.src.ViewTimes(ctx, userID, now.Add(-StreakLookback))
	if err != nil {
		return nil, fmt.Errorf("view times: %w", err)
	}
	sum.Streak = Streak(times, now)

	if sum.Today, err = s.src.DistinctCardsSince(ctx, userID, Day(now)); err != nil {
		return nil, fmt.Errorf("cards today: %w", err)
	}
	if sum.Week, err = s.src.DistinctCardsSince(ctx, userID, now.AddDate(0, 0, -7)); err != nil {
		return nil, fmt.Errorf("cards this week: %w", err)
	}
	if sum.Top, err = s.src.TopCards(ctx, userID, TopCardsLimit); err != nil {
		return nil, fmt.Errorf("top cards: %w", err)
	}
	return &sum, nil
}

// StoreSource adapts a *store.Store to Source.
type StoreSource struct {
	Store *store.Store
}

func (s StoreSource) CountCards(ctx context.Context, userID int64) (int, error) {
	return s.Store.Cards().Count(ctx, userID, store.AllSets())
}

func (s StoreSource) TotalViews(ctx context.Context, userID int64) (int64, error) {
	ls, err := s.Store.LearningStats().Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return ls.TotalViews, nil
}

func (s StoreSource) ViewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	return s.Store.Views().ViewTimes(ctx, userID, since)
}

func (s StoreSource) DistinctCardsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return s.Store.Views().DistinctCardsSince(ctx, userID, since)
}

func (s StoreSource) TopCards(ctx context.Context, userID int64, limit int) ([]store.CardViewCount, error) {
	return s.Store.Views().TopCards(ctx, userID, limit)
}
