package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type cardRepo struct {
	s *Store
}

func (r *cardRepo) Create(ctx context.Context, c *Card) error {
	now := time.Now()
	ib := r.s.builder().Insert(tableCards).
		Columns("user_id", "set_id", "word", "translation", "hint", "created_at").
		Values(c.UserID, nullableID(c.SetID), c.Word, c.Translation, c.Hint, toMillis(now))
	id, err := r.s.insert(ctx, r.s.db, ib)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	c.ID = id
	c.CreatedAt = fromMillis(toMillis(now))
	return nil
}

func (r *cardRepo) Get(ctx context.Context, userID, cardID int64) (*Card, error) {
	cards, err := r.query(ctx, func(c *entsql.SelectTable) *entsql.Predicate {
		return entsql.And(entsql.EQ(c.C("id"), cardID), entsql.EQ(c.C("user_id"), userID))
	})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNotFound
	}
	return &cards[0], nil
}

func (r *cardRepo) Update(ctx context.Context, c *Card) error {
	ub := r.s.builder().Update(tableCards).
		Set("word", c.Word).
		Set("translation", c.Translation).
		Set("hint", c.Hint).
		Where(entsql.And(entsql.EQ("id", c.ID), entsql.EQ("user_id", c.UserID)))
	n, err := exec(ctx, r.s.db, ub)
	if err != nil {
		return fmt.Errorf("update card %d: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cardRepo) Move(ctx context.Context, userID, cardID int64, setID *int64) error {
	ub := r.s.builder().Update(tableCards)
	if setID == nil {
		ub.SetNull("set_id")
	} else {
		ub.Set("set_id", *setID)
	}
	ub.Where(entsql.And(entsql.EQ("id", cardID), entsql.EQ("user_id", userID)))

	n, err := exec(ctx, r.s.db, ub)
	if err != nil {
		return fmt.Errorf("move card %d: %w", cardID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cardRepo) Delete(ctx context.Context, userID, cardID int64) error {
	del := r.s.builder().Delete(tableCards).
		Where(entsql.And(entsql.EQ("id", cardID), entsql.EQ("user_id", userID)))
	n, err := exec(ctx, r.s.db, del)
	if err != nil {
		return fmt.Errorf("delete card %d: %w", cardID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cardRepo) List(ctx context.Context, userID int64, f SetFilter) ([]Card, error) {
	return r.query(ctx, func(c *entsql.SelectTable) *entsql.Predicate {
		return filterPredicate(c, userID, f)
	})
}

func (r *cardRepo) IDs(ctx context.Context, userID int64, f SetFilter) ([]int64, error) {
	c := r.s.table(tableCards)
	query, args := r.s.builder().Select(c.C("id")).
		From(c).
		Where(filterPredicate(c, userID, f)).
		OrderBy(c.C("id")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query card ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *cardRepo) Count(ctx context.Context, userID int64, f SetFilter) (int, error) {
	c := r.s.table(tableCards)
	query, args := r.s.builder().Select(entsql.Count("*")).
		From(c).
		Where(filterPredicate(c, userID, f)).
		Query()

	var n int
	if err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// query selects cards joined with their set name, ordered by id.
func (r *cardRepo) query(ctx context.Context, where func(c *entsql.SelectTable) *entsql.Predicate) ([]Card, error) {
	// Joined queries alias every table up front: the builder would
	// otherwise alias the joined one after its columns were rendered.
	c := r.s.table(tableCards).As("c")
	s := r.s.table(tableSets).As("s")
	query, args := r.s.builder().Select(
		c.C("id"), c.C("user_id"), c.C("set_id"), c.C("word"),
		c.C("translation"), c.C("hint"), c.C("created_at"), s.C("name"),
	).
		From(c).
		LeftJoin(s).On(c.C("set_id"), s.C("id")).
		Where(where(c)).
		OrderBy(c.C("id")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func scanCard(rows *sql.Rows) (Card, error) {
	var (
		card    Card
		setID   sql.NullInt64
		created int64
		setName sql.NullString
	)
	err := rows.Scan(&card.ID, &card.UserID, &setID, &card.Word, &card.Translation, &card.Hint, &created, &setName)
	if err != nil {
		return Card{}, fmt.Errorf("scan card: %w", err)
	}
	if setID.Valid {
		id := setID.Int64
		card.SetID = &id
	}
	card.SetName = setName.String
	card.CreatedAt = fromMillis(created)
	return card, nil
}

func filterPredicate(c *entsql.SelectTable, userID int64, f SetFilter) *entsql.Predicate {
	owner := entsql.EQ(c.C("user_id"), userID)
	switch f.Kind {
	case FilterNoSet:
		return entsql.And(owner, entsql.IsNull(c.C("set_id")))
	case FilterSet:
		return entsql.And(owner, entsql.EQ(c.C("set_id"), f.SetID))
	default:
		return owner
	}
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
