package cards

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/store"
)

type stubHints struct {
	hint  string
	err   error
	calls int
}

func (s *stubHints) Suggest(context.Context, string, string) (string, error) {
	s.calls++
	return s.hint, s.err
}

func newTestService(t *testing.T, hints HintSuggester, log *logging.Logger) (*Service, int64) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	u, err := st.Users().FindOrCreate(context.Background(), 100, "cards")
	require.NoError(t, err)
	return NewService(st.Cards(), st.Sets(), hints, log), u.ID
}

func TestAddCreatesSetByName(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	first, err := svc.Add(ctx, uid, "Animals: dog - собака")
	require.NoError(t, err)
	second, err := svc.Add(ctx, uid, "animals: cat - кошка")
	require.NoError(t, err)

	require.NotNil(t, first.SetID)
	require.NotNil(t, second.SetID)
	assert.Equal(t, *first.SetID, *second.SetID, "set names match ignoring case")
	assert.Equal(t, "Animals", second.SetName)

	sets, err := svc.Sets(ctx, uid)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 2, sets[0].Cards)
}

func TestAddBulk(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	res, err := svc.AddInput(ctx, uid, "apple - яблоко\nbroken line\n\nbook - книга")
	require.NoError(t, err)
	require.NotNil(t, res.Bulk)
	assert.Nil(t, res.Card)
	assert.Equal(t, 2, res.Bulk.Added)
	assert.Equal(t, 4, res.Bulk.Lines)
	assert.Equal(t, []string{"Line 2: broken line"}, res.Bulk.Errors)

	n, err := svc.Count(ctx, uid, store.AllSets())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAddInputSingle(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	res, err := svc.AddInput(context.Background(), uid, "sun - солнце")
	require.NoError(t, err)
	require.NotNil(t, res.Card)
	assert.Equal(t, "sun", res.Card.Word)
}

func TestAddHintSuggestion(t *testing.T) {
	hints := &stubHints{hint: "sʌn"}
	svc, uid := newTestService(t, hints, nil)
	ctx := context.Background()

	card, err := svc.Add(ctx, uid, "sun - солнце")
	require.NoError(t, err)
	assert.Equal(t, "sʌn", card.Hint)

	// An explicit hint skips the suggester.
	card, err = svc.Add(ctx, uid, "moon [muːn] - луна")
	require.NoError(t, err)
	assert.Equal(t, "muːn", card.Hint)
	assert.Equal(t, 1, hints.calls)
}

func TestAddHintFailureDoesNotBlock(t *testing.T) {
	tl := logging.NewTestLogger()
	svc, uid := newTestService(t, &stubHints{err: errors.New("provider down")}, tl.Logger)

	card, err := svc.Add(context.Background(), uid, "sun - солнце")
	require.NoError(t, err)
	assert.Empty(t, card.Hint)
	tl.AssertLogged(t, zapcore.WarnLevel, "hint suggestion failed")
}

func TestEditKeepsSet(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	card, err := svc.Add(ctx, uid, "Food: bread - хлеб")
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, uid, card.ID, "loaf - буханка")
	require.NoError(t, err)
	assert.Equal(t, "loaf", edited.Word)

	got, err := svc.Get(ctx, uid, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "буханка", got.Translation)
	require.NotNil(t, got.SetID)
	assert.Equal(t, *card.SetID, *got.SetID)

	_, err = svc.Edit(ctx, uid, card.ID, "no separator")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Edit(ctx, uid, card.ID+99, "a - b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveDegradesMissingSetToNoSet(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	card, err := svc.Add(ctx, uid, "Food: bread - хлеб")
	require.NoError(t, err)
	missing := *card.SetID + 100

	moved, set, err := svc.Move(ctx, uid, card.ID, &missing)
	require.NoError(t, err)
	assert.Nil(t, set)
	assert.Nil(t, moved.SetID)

	travel, err := svc.CreateSet(ctx, uid, "Travel")
	require.NoError(t, err)
	moved, set, err = svc.Move(ctx, uid, card.ID, &travel.ID)
	require.NoError(t, err)
	require.NotNil(t, set)
	assert.Equal(t, "Travel", moved.SetName)
}

func TestCreateSetValidation(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateSet(ctx, uid, "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Set name cannot be empty", verr.Msg)

	_, err = svc.CreateSet(ctx, uid, "Verbs")
	require.NoError(t, err)
	_, err = svc.CreateSet(ctx, uid, "verbs")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Set «verbs» already exists", verr.Msg)
}

func TestDeleteSetKeepsCards(t *testing.T) {
	svc, uid := newTestService(t, nil, nil)
	ctx := context.Background()

	card, err := svc.Add(ctx, uid, "Food: bread - хлеб")
	require.NoError(t, err)

	set, err := svc.DeleteSet(ctx, uid, *card.SetID)
	require.NoError(t, err)
	assert.Equal(t, "Food", set.Name)

	got, err := svc.Get(ctx, uid, card.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SetID)

	_, err = svc.DeleteSet(ctx, uid, set.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
