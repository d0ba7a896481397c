package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newUser(t *testing.T, s *Store, externalID int64) *User {
	t.Helper()
	u, err := s.Users().FindOrCreate(context.Background(), externalID, "tester")
	require.NoError(t, err)
	return u
}

func newCard(t *testing.T, s *Store, userID int64, word, translation string, setID *int64) *Card {
	t.Helper()
	c := &Card{UserID: userID, Word: word, Translation: translation, SetID: setID}
	require.NoError(t, s.Cards().Create(context.Background(), c))
	return c
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestUserFindOrCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Users().FindOrCreate(ctx, 42, "alice")
	require.NoError(t, err)
	again, err := s.Users().FindOrCreate(ctx, 42, "alice b")
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "alice b", again.DisplayName)

	got, err := s.Users().Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice b", got.DisplayName)

	_, err = s.Users().GetByExternalID(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCardCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)

	c := newCard(t, s, u.ID, "dog", "собака", nil)
	if c.ID == 0 {
		t.Fatal("expected generated id")
	}

	got, err := s.Cards().Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "dog", got.Word)
	assert.Nil(t, got.SetID)

	got.Translation = "пёс|собака"
	got.Hint = "sobaka"
	require.NoError(t, s.Cards().Update(ctx, got))

	got, err = s.Cards().Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "пёс|собака", got.Translation)
	assert.Equal(t, "sobaka", got.Hint)

	require.NoError(t, s.Cards().Delete(ctx, u.ID, c.ID))
	_, err = s.Cards().Get(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Cards().Delete(ctx, u.ID, c.ID), ErrNotFound)
}

func TestJoinedQueriesCarrySetColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)

	set, err := s.Sets().Create(ctx, u.ID, "Travel")
	require.NoError(t, err)
	inSet := newCard(t, s, u.ID, "train", "поезд", &set.ID)
	loose := newCard(t, s, u.ID, "dog", "собака", nil)

	got, err := s.Cards().Get(ctx, u.ID, inSet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.SetName)
	require.NotNil(t, got.SetID)
	assert.Equal(t, set.ID, *got.SetID)

	list, err := s.Cards().List(ctx, u.ID, AllSets())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Travel", list[0].SetName)
	assert.Equal(t, "", list[1].SetName)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Views().Append(ctx, u.ID, loose.ID, now.Add(-48*time.Hour)))

	top, err := s.Views().TopCards(ctx, u.ID, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "dog", top[0].Card.Word)

	users, err := s.LearningStats().ReminderCandidates(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ExternalID)
}

func TestCardOwnership(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	owner := newUser(t, s, 1)
	other := newUser(t, s, 2)
	c := newCard(t, s, owner.ID, "cat", "кот", nil)

	_, err := s.Cards().Get(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stolen := *c
	stolen.UserID = other.ID
	stolen.Word = "hijacked"
	assert.ErrorIs(t, s.Cards().Update(ctx, &stolen), ErrNotFound)
	assert.ErrorIs(t, s.Cards().Delete(ctx, other.ID, c.ID), ErrNotFound)
	assert.ErrorIs(t, s.Cards().Move(ctx, other.ID, c.ID, nil), ErrNotFound)

	got, err := s.Cards().Get(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", got.Word)
}

func TestCardFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)

	animals, err := s.Sets().Create(ctx, u.ID, "Animals")
	require.NoError(t, err)

	a := newCard(t, s, u.ID, "dog", "собака", &animals.ID)
	b := newCard(t, s, u.ID, "house", "дом", nil)
	c := newCard(t, s, u.ID, "cat", "кот", &animals.ID)

	tests := []struct {
		name   string
		filter SetFilter
		want   []int64
	}{
		{"all", AllSets(), []int64{a.ID, b.ID, c.ID}},
		{"no set", NoSet(), []int64{b.ID}},
		{"in set", InSet(animals.ID), []int64{a.ID, c.ID}},
		{"unknown set", InSet(animals.ID + 100), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := s.Cards().IDs(ctx, u.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)

			n, err := s.Cards().Count(ctx, u.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}

	list, err := s.Cards().List(ctx, u.ID, InSet(animals.ID))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Animals", list[0].SetName)
}

func TestCardMove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	set, err := s.Sets().Create(ctx, u.ID, "Food")
	require.NoError(t, err)
	c := newCard(t, s, u.ID, "bread", "хлеб", nil)

	require.NoError(t, s.Cards().Move(ctx, u.ID, c.ID, &set.ID))
	got, err := s.Cards().Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SetID)
	assert.Equal(t, set.ID, *got.SetID)
	assert.Equal(t, "Food", got.SetName)

	require.NoError(t, s.Cards().Move(ctx, u.ID, c.ID, nil))
	got, err = s.Cards().Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SetID)
	assert.Empty(t, got.SetName)
}

func TestSetNamesCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	other := newUser(t, s, 2)

	_, err := s.Sets().Create(ctx, u.ID, "Verbs")
	require.NoError(t, err)

	_, err = s.Sets().Create(ctx, u.ID, "verbs")
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := s.Sets().FindByName(ctx, u.ID, "VERBS")
	require.NoError(t, err)
	assert.Equal(t, "Verbs", found.Name)

	// Names are scoped per user.
	_, err = s.Sets().Create(ctx, other.ID, "Verbs")
	assert.NoError(t, err)
}

func TestSetDeleteDetachesCards(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	set, err := s.Sets().Create(ctx, u.ID, "Travel")
	require.NoError(t, err)
	c := newCard(t, s, u.ID, "ticket", "билет", &set.ID)

	require.NoError(t, s.Sets().Delete(ctx, u.ID, set.ID))

	got, err := s.Cards().Get(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SetID)

	_, err = s.Sets().Get(ctx, u.ID, set.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Sets().Delete(ctx, u.ID, set.ID), ErrNotFound)

	sets, err := s.Sets().List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestViewAppendUpdatesAggregate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	c := newCard(t, s, u.ID, "sun", "солнце", nil)

	ls, err := s.LearningStats().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, ls.TotalViews)
	assert.Nil(t, ls.LastLearned)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Views().Append(ctx, u.ID, c.ID, at))
	require.NoError(t, s.Views().Append(ctx, u.ID, c.ID, at.Add(time.Minute)))

	ls, err = s.LearningStats().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ls.TotalViews)
	require.NotNil(t, ls.LastLearned)
	assert.True(t, ls.LastLearned.Equal(at.Add(time.Minute)))
}

func TestViewQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	a := newCard(t, s, u.ID, "a", "1", nil)
	b := newCard(t, s, u.ID, "b", "2", nil)
	gone := newCard(t, s, u.ID, "gone", "3", nil)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	views := []struct {
		card int64
		at   time.Time
	}{
		{a.ID, base.Add(-48 * time.Hour)},
		{a.ID, base},
		{b.ID, base.Add(time.Hour)},
		{a.ID, base.Add(2 * time.Hour)},
		{gone.ID, base.Add(3 * time.Hour)},
		{gone.ID, base.Add(4 * time.Hour)},
		{gone.ID, base.Add(5 * time.Hour)},
	}
	for _, v := range views {
		require.NoError(t, s.Views().Append(ctx, u.ID, v.card, v.at))
	}
	require.NoError(t, s.Cards().Delete(ctx, u.ID, gone.ID))

	n, err := s.Views().DistinctCardsSince(ctx, u.ID, base)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	times, err := s.Views().ViewTimes(ctx, u.ID, base.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, times, len(views))
	assert.True(t, times[0].Equal(base.Add(5*time.Hour)), "newest first")
	assert.True(t, times[len(times)-1].Equal(base.Add(-48*time.Hour)))

	top, err := s.Views().TopCards(ctx, u.ID, 5)
	require.NoError(t, err)
	require.Len(t, top, 2, "deleted cards are excluded")
	assert.Equal(t, a.ID, top[0].Card.ID)
	assert.Equal(t, 3, top[0].Views)
	assert.Equal(t, b.ID, top[1].Card.ID)
	assert.Equal(t, 1, top[1].Views)
}

func TestReminderCandidates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	idle := newUser(t, s, 1)
	newCard(t, s, idle.ID, "x", "y", nil)

	newUser(t, s, 2) // no cards

	learnedRecently := newUser(t, s, 3)
	c := newCard(t, s, learnedRecently.ID, "x", "y", nil)
	require.NoError(t, s.Views().Append(ctx, learnedRecently.ID, c.ID, now.Add(-time.Hour)))

	remindedRecently := newUser(t, s, 4)
	newCard(t, s, remindedRecently.ID, "x", "y", nil)
	require.NoError(t, s.LearningStats().MarkReminded(ctx, remindedRecently.ID, now.Add(-2*time.Hour)))

	learnedLongAgo := newUser(t, s, 5)
	old := newCard(t, s, learnedLongAgo.ID, "x", "y", nil)
	require.NoError(t, s.Views().Append(ctx, learnedLongAgo.ID, old.ID, now.Add(-72*time.Hour)))

	users, err := s.LearningStats().ReminderCandidates(ctx, cutoff)
	require.NoError(t, err)

	var ids []int64
	for _, u := range users {
		ids = append(ids, u.ExternalID)
	}
	assert.Equal(t, []int64{1, 5}, ids)

	// A delivered reminder suppresses the next one.
	require.NoError(t, s.LearningStats().MarkReminded(ctx, idle.ID, now))
	users, err = s.LearningStats().ReminderCandidates(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(5), users[0].ExternalID)
}

func TestMarkRemindedKeepsViews(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := newUser(t, s, 1)
	c := newCard(t, s, u.ID, "x", "y", nil)
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.Views().Append(ctx, u.ID, c.ID, now))
	require.NoError(t, s.LearningStats().MarkReminded(ctx, u.ID, now))

	ls, err := s.LearningStats().Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ls.TotalViews)
	require.NotNil(t, ls.LastReminder)
	assert.True(t, ls.LastReminder.Equal(now))
}
