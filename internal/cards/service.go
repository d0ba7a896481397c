package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/store"
)

// HintSuggester proposes a pronunciation hint for a new card.
type HintSuggester interface {
	Suggest(ctx context.Context, word, translation string) (string, error)
}

// SetCount pairs a set with the number of cards in it.
type SetCount struct {
	Set   store.CardSet
	Cards int
}

// BulkResult summarises a multi-line add.
type BulkResult struct {
	Added  int
	Lines  int
	Errors []string // "Line N: text" for each rejected line
}

// AddResult is the outcome of AddInput: exactly one of Card or Bulk is set.
type AddResult struct {
	Card *store.Card
	Bulk *BulkResult
}

// Service manages a user's cards and sets.
type Service struct {
	cards store.CardRepo
	sets  store.SetRepo
	hints HintSuggester
	log   *logging.Logger
}

// NewService creates a Service. hints may be nil.
func NewService(cards store.CardRepo, sets store.SetRepo, hints HintSuggester, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{cards: cards, sets: sets, hints: hints, log: log.Named("cards")}
}

// AddInput adds one card, or several when input spans multiple lines.
func (s *Service) AddInput(ctx context.Context, userID int64, input string) (AddResult, error) {
	if IsBulk(input) {
		res, err := s.AddBulk(ctx, userID, input)
		if err != nil {
			return AddResult{}, err
		}
		return AddResult{Bulk: &res}, nil
	}
	card, err := s.Add(ctx, userID, input)
	if err != nil {
		return AddResult{}, err
	}
	return AddResult{Card: card}, nil
}

// Add parses a single line and creates the card, creating its set by
// name if needed.
func (s *Service) Add(ctx context.Context, userID int64, line string) (*store.Card, error) {
	p, err := ParseLine(line)
	if err != nil {
		return nil, err
	}

	card := &store.Card{UserID: userID, Word: p.Word, Translation: p.Translation, Hint: p.Hint}
	if p.SetName != "" {
		set, err := s.GetOrCreateSet(ctx, userID, p.SetName)
		if err != nil {
			return nil, err
		}
		card.SetID = &set.ID
		card.SetName = set.Name
	}
	if card.Hint == "" {
		card.Hint = s.suggestHint(ctx, card.Word, card.Translation)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// AddBulk creates one card per non-empty line. Rejected lines are
// reported, not fatal; storage errors abort.
func (s *Service) AddBulk(ctx context.Context, userID int64, input string) (BulkResult, error) {
	lines := splitLines(input)
	res := BulkResult{Lines: len(lines)}
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		_, err := s.Add(ctx, userID, line)
		var verr *ValidationError
		switch {
		case err == nil:
			res.Added++
		case errors.As(err, &verr):
			res.Errors = append(res.Errors, lineError(i+1, line))
		default:
			return res, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return res, nil
}

// Edit replaces the card's word, translation and hint. The card keeps its set.
func (s *Service) Edit(ctx context.Context, userID, cardID int64, input string) (*store.Card, error) {
	card, err := s.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	p, err := ParseCard(input)
	if err != nil {
		return nil, err
	}
	card.Word, card.Translation, card.Hint = p.Word, p.Translation, p.Hint
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, mapNotFound(err)
	}
	return card, nil
}

func (s *Service) Get(ctx context.Context, userID, cardID int64) (*store.Card, error) {
	card, err := s.cards.Get(ctx, userID, cardID)
	return card, mapNotFound(err)
}

func (s *Service) Delete(ctx context.Context, userID, cardID int64) error {
	return mapNotFound(s.cards.Delete(ctx, userID, cardID))
}

func (s *Service) List(ctx context.Context, userID int64, f store.SetFilter) ([]store.Card, error) {
	return s.cards.List(ctx, userID, f)
}

func (s *Service) Count(ctx context.Context, userID int64, f store.SetFilter) (int, error) {
	return s.cards.Count(ctx, userID, f)
}

// Move puts the card into setID, or into no set when setID is nil. A set
// that no longer exists degrades to no set. The returned set is nil when
// the card ends up without one.
func (s *Service) Move(ctx context.Context, userID, cardID int64, setID *int64) (*store.Card, *store.CardSet, error) {
	card, err := s.Get(ctx, userID, cardID)
	if err != nil {
		return nil, nil, err
	}

	var set *store.CardSet
	if setID != nil {
		set, err = s.sets.Get(ctx, userID, *setID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			set = nil
		case err != nil:
			return nil, nil, err
		}
	}

	var target *int64
	if set != nil {
		target = &set.ID
	}
	if err := s.cards.Move(ctx, userID, cardID, target); err != nil {
		return nil, nil, mapNotFound(err)
	}
	card.SetID = target
	card.SetName = ""
	if set != nil {
		card.SetName = set.Name
	}
	return card, set, nil
}

// CreateSet creates a set, rejecting blank and duplicate names.
func (s *Service) CreateSet(ctx context.Context, userID int64, name string) (*store.CardSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "Set name cannot be empty"}
	}
	set, err := s.sets.Create(ctx, userID, name)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, &ValidationError{Msg: fmt.Sprintf("Set «%s» already exists", name)}
	}
	return set, err
}

// GetOrCreateSet finds a set by case-insensitive name or creates it.
func (s *Service) GetOrCreateSet(ctx context.Context, userID int64, name string) (*store.CardSet, error) {
	set, err := s.sets.FindByName(ctx, userID, name)
	if err == nil {
		return set, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	set, err = s.sets.Create(ctx, userID, name)
	if errors.Is(err, store.ErrDuplicate) {
		return s.sets.FindByName(ctx, userID, name)
	}
	return set, err
}

func (s *Service) GetSet(ctx context.Context, userID, setID int64) (*store.CardSet, error) {
	set, err := s.sets.Get(ctx, userID, setID)
	return set, mapNotFound(err)
}

// Sets returns every set with its card count, ordered by name.
func (s *Service) Sets(ctx context.Context, userID int64) ([]SetCount, error) {
	sets, err := s.sets.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SetCount, 0, len(sets))
	for _, set := range sets {
		n, err := s.cards.Count(ctx, userID, store.InSet(set.ID))
		if err != nil {
			return nil, err
		}
		out = append(out, SetCount{Set: set, Cards: n})
	}
	return out, nil
}

// DeleteSet detaches the set's cards and removes it.
func (s *Service) DeleteSet(ctx context.Context, userID, setID int64) (*store.CardSet, error) {
	set, err := s.GetSet(ctx, userID, setID)
	if err != nil {
		return nil, err
	}
	if err := s.sets.Delete(ctx, userID, setID); err != nil {
		return nil, mapNotFound(err)
	}
	return set, nil
}

func (s *Service) suggestHint(ctx context.Context, word, translation string) string {
	if s.hints == nil {
		return ""
	}
	hint, err := s.hints.Suggest(ctx, word, translation)
	if err != nil {
		s.log.Warn(ctx, "hint suggestion failed", zap.String("word", word), zap.Error(err))
		return ""
	}
	return hint
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
