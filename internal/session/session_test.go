package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/cardbot/internal/store"
)

type fakeCards struct {
	mu    sync.Mutex
	cards []store.Card // ordered by id
}

func newFakeCards(words ...string) *fakeCards {
	f := &fakeCards{}
	for _, w := range words {
		f.add(w, w+"-t", nil)
	}
	return f
}

func (f *fakeCards) add(word, translation string, setID *int64) *store.Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := store.Card{ID: int64(len(f.cards) + 1), UserID: 1, Word: word, Translation: translation, SetID: setID}
	f.cards = append(f.cards, c)
	return &c
}

func (f *fakeCards) remove(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = slices.DeleteFunc(f.cards, func(c store.Card) bool { return c.ID == id })
}

func (f *fakeCards) IDs(_ context.Context, userID int64, filter store.SetFilter) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, c := range f.cards {
		if c.UserID != userID {
			continue
		}
		switch filter.Kind {
		case store.FilterNoSet:
			if c.SetID != nil {
				continue
			}
		case store.FilterSet:
			if c.SetID == nil || *c.SetID != filter.SetID {
				continue
			}
		}
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeCards) Get(_ context.Context, userID, cardID int64) (*store.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.ID == cardID && c.UserID == userID {
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeViews struct {
	mu    sync.Mutex
	cards []int64
}

func (f *fakeViews) Append(_ context.Context, _, cardID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, cardID)
	return nil
}

func (f *fakeViews) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards)
}

// seqRand returns the queued values in order, then zeros.
type seqRand struct {
	mu     sync.Mutex
	values []int
}

func (r *seqRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func newTestController(cards *fakeCards, views *fakeViews, r Rand) *Controller {
	return NewController(NewMemoryStore(), cards, views, WithRand(r))
}

const user = int64(1)

func TestStartNoCards(t *testing.T) {
	c := newTestController(newFakeCards(), &fakeViews{}, &seqRand{})
	_, err := c.Start(context.Background(), user, Options{Filter: store.AllSets()})
	if !errors.Is(err, ErrNoCards) {
		t.Fatalf("Start err = %v, want ErrNoCards", err)
	}
	if _, ok, _ := c.Active(context.Background(), user); ok {
		t.Error("session created for empty collection")
	}
}

func TestSequentialYieldsSnapshotOrder(t *testing.T) {
	cards := newFakeCards("A", "B", "C")
	c := newTestController(cards, &fakeViews{}, &seqRand{})
	ctx := context.Background()

	first, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Policy: Sequential})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Cards added after start are not part of the walk.
	cards.add("D", "D-t", nil)

	got := []string{first.Word}
	for {
		out, err := c.Advance(ctx, user)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if out.Kind != OutcomeCard {
			if out.Kind != OutcomeExhausted {
				t.Fatalf("Outcome = %v, want exhausted", out.Kind)
			}
			break
		}
		got = append(got, out.Card.Word)
	}

	if want := []string{"A", "B", "C"}; !slices.Equal(got, want) {
		t.Errorf("sequence = %v, want %v", got, want)
	}
	if _, ok, _ := c.Active(ctx, user); ok {
		t.Error("session still active after exhaustion")
	}
}

func TestSequentialSkipsDeletedCards(t *testing.T) {
	cards := newFakeCards("A", "B", "C")
	c := newTestController(cards, &fakeViews{}, &seqRand{})
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Policy: Sequential}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cards.remove(2)

	out, err := c.Advance(ctx, user)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if out.Kind != OutcomeCard || out.Card.Word != "C" {
		t.Errorf("Advance = %+v, want card C", out)
	}
}

func TestGoalReachedAfterExactlyGoalResolutions(t *testing.T) {
	cards := newFakeCards("A", "B", "C", "D", "E")
	views := &fakeViews{}
	c := newTestController(cards, views, &seqRand{})
	ctx := context.Background()

	card, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Mode: TypedInput, Goal: 3})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if c.GoalReached(ctx, user) {
			t.Fatalf("goal reached before resolution %d", i)
		}
		res, err := c.RecordAnswer(ctx, user, card, "wrong")
		if err != nil {
			t.Fatalf("RecordAnswer %d: %v", i, err)
		}
		if res.Outcome.Viewed != i {
			t.Errorf("Viewed = %d, want %d", res.Outcome.Viewed, i)
		}
		if i < 3 {
			if res.Outcome.Kind != OutcomeCard {
				t.Fatalf("outcome %d = %v, want card", i, res.Outcome.Kind)
			}
			card = res.Outcome.Card
			continue
		}
		if res.Outcome.Kind != OutcomeGoalReached {
			t.Errorf("outcome 3 = %v, want goal reached", res.Outcome.Kind)
		}
	}

	if views.count() != 3 {
		t.Errorf("views = %d, want 3", views.count())
	}
	if _, ok, _ := c.Active(ctx, user); ok {
		t.Error("session still active after goal")
	}
}

func TestRandomSeesLiveCards(t *testing.T) {
	cards := newFakeCards("A")
	r := &seqRand{}
	c := newTestController(cards, &fakeViews{}, r)
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Policy: Random}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cards.add("B", "B-t", nil)

	r.values = []int{1}
	out, err := c.Advance(ctx, user)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if out.Kind != OutcomeCard || out.Card.Word != "B" {
		t.Errorf("Advance = %+v, want newly added card B", out)
	}
}

func TestRandomExhaustedWhenCardsGone(t *testing.T) {
	cards := newFakeCards("A")
	c := newTestController(cards, &fakeViews{}, &seqRand{})
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets()}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cards.remove(1)

	out, err := c.Advance(ctx, user)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if out.Kind != OutcomeExhausted {
		t.Errorf("Outcome = %v, want exhausted", out.Kind)
	}
}

func TestRecordAnswerDirection(t *testing.T) {
	cards := &fakeCards{}
	card := cards.add("go", "идти | ходить", nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		direction Direction
		input     string
		correct   bool
		expected  string
	}{
		{"forward any variant", Forward, "ХОДИТЬ", true, "идти"},
		{"forward wrong", Forward, "go", false, "идти"},
		{"reverse", Reverse, " Go ", true, "go"},
		{"empty", Forward, "  ", false, "идти"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(cards, &fakeViews{}, &seqRand{})
			if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Direction: tt.direction, Mode: TypedInput}); err != nil {
				t.Fatalf("Start: %v", err)
			}
			res, err := c.RecordAnswer(ctx, user, card, tt.input)
			if err != nil {
				t.Fatalf("RecordAnswer: %v", err)
			}
			if res.Correct != tt.correct {
				t.Errorf("Correct = %v, want %v", res.Correct, tt.correct)
			}
			if res.Expected != tt.expected {
				t.Errorf("Expected = %q, want %q", res.Expected, tt.expected)
			}
		})
	}
}

func TestSkipRevealsFullExpected(t *testing.T) {
	cards := &fakeCards{}
	card := cards.add("go", "идти | ходить", nil)
	views := &fakeViews{}
	c := newTestController(cards, views, &seqRand{})
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Mode: TypedInput}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	expected, out, err := c.Skip(ctx, user, card)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if expected != "идти | ходить" {
		t.Errorf("expected = %q, want full value", expected)
	}
	if out.Viewed != 1 {
		t.Errorf("Viewed = %d, want 1", out.Viewed)
	}
	if views.count() != 1 {
		t.Errorf("views = %d, want 1", views.count())
	}
}

func TestRevealDoesNotResolve(t *testing.T) {
	cards := newFakeCards("A", "B")
	views := &fakeViews{}
	c := newTestController(cards, views, &seqRand{})
	ctx := context.Background()

	card, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Goal: 1})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Reveal(ctx, user, card); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	s, ok, _ := c.Active(ctx, user)
	if !ok || s.Viewed != 0 {
		t.Errorf("session after reveal = %+v, want viewed 0", s)
	}
	if views.count() != 1 {
		t.Errorf("views = %d, want 1", views.count())
	}
}

func TestNoSession(t *testing.T) {
	c := newTestController(newFakeCards("A"), &fakeViews{}, &seqRand{})
	ctx := context.Background()

	if _, err := c.Advance(ctx, user); !errors.Is(err, ErrNoSession) {
		t.Errorf("Advance err = %v, want ErrNoSession", err)
	}
	if _, err := c.Next(ctx, user); !errors.Is(err, ErrNoSession) {
		t.Errorf("Next err = %v, want ErrNoSession", err)
	}
	if got := c.Direction(ctx, user); got != Forward {
		t.Errorf("Direction = %v, want forward", got)
	}
	if err := c.End(ctx, user); err != nil {
		t.Errorf("End without session: %v", err)
	}
}

func TestDrawWithoutSession(t *testing.T) {
	c := newTestController(newFakeCards("A", "B"), &fakeViews{}, &seqRand{values: []int{1}})
	ctx := context.Background()

	card, err := c.Draw(ctx, user, store.AllSets())
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if card.Word != "B" {
		t.Errorf("Draw = %q, want B", card.Word)
	}
	if _, ok, _ := c.Active(ctx, user); ok {
		t.Error("Draw created a session")
	}
	if _, err := c.Draw(ctx, user, store.InSet(99)); !errors.Is(err, ErrNoCards) {
		t.Errorf("Draw on empty set err = %v, want ErrNoCards", err)
	}
}

func TestStartSupersedes(t *testing.T) {
	c := newTestController(newFakeCards("A", "B"), &fakeViews{}, &seqRand{})
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Goal: 5}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Advance(ctx, user); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Direction: Reverse}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s, ok, _ := c.Active(ctx, user)
	if !ok {
		t.Fatal("no session after restart")
	}
	if s.Viewed != 0 || s.Goal != 0 || s.Direction != Reverse {
		t.Errorf("session = %+v, want fresh reverse session", s)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		viewed, goal int
		want         string
	}{
		{0, 0, ""},
		{0, 10, "(1/10)"},
		{4, 10, "(5/10)"},
	}
	for _, tt := range tests {
		s := &Session{Viewed: tt.viewed, Goal: tt.goal}
		if got := s.Progress(); got != tt.want {
			t.Errorf("Progress(%d, %d) = %q, want %q", tt.viewed, tt.goal, got, tt.want)
		}
	}
}

func TestConcurrentAdvanceCountsEveryResolution(t *testing.T) {
	cards := newFakeCards("A", "B", "C")
	c := newTestController(cards, &fakeViews{}, &seqRand{})
	ctx := context.Background()

	if _, err := c.Start(ctx, user, Options{Filter: store.AllSets(), Goal: 1000}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Advance(ctx, user); err != nil {
				t.Errorf("Advance: %v", err)
			}
		}()
	}
	wg.Wait()

	s, _, _ := c.Active(ctx, user)
	if s.Viewed != 20 {
		t.Errorf("Viewed = %d, want 20", s.Viewed)
	}
}
