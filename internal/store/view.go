package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type viewRepo struct {
	s *Store
}

func (r *viewRepo) Append(ctx context.Context, userID, cardID int64, at time.Time) error {
	ms := toMillis(at)
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		ib := r.s.builder().Insert(tableViews).
			Columns("user_id", "card_id", "viewed_at").
			Values(userID, cardID, ms)
		if _, err := r.s.insert(ctx, tx, ib); err != nil {
			return fmt.Errorf("append view: %w", err)
		}

		ub := r.s.builder().Update(tableLearningStats).
			Add("total_views", 1).
			Set("last_learned", ms).
			Where(entsql.EQ("user_id", userID))
		n, err := exec(ctx, tx, ub)
		if err != nil {
			return fmt.Errorf("bump learning stats: %w", err)
		}
		if n > 0 {
			return nil
		}

		create := r.s.builder().Insert(tableLearningStats).
			Columns("user_id", "total_views", "last_learned").
			Values(userID, 1, ms)
		query, args := create.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create learning stats: %w", err)
		}
		return nil
	})
}

func (r *viewRepo) DistinctCardsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	v := r.s.table(tableViews)
	query, args := r.s.builder().Select(entsql.Count(entsql.Distinct(v.C("card_id")))).
		From(v).
		Where(entsql.And(
			entsql.EQ(v.C("user_id"), userID),
			entsql.GTE(v.C("viewed_at"), toMillis(since)),
		)).
		Query()

	var n int
	if err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count distinct views: %w", err)
	}
	return n, nil
}

func (r *viewRepo) ViewTimes(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	v := r.s.table(tableViews)
	query, args := r.s.builder().Select(v.C("viewed_at")).
		From(v).
		Where(entsql.And(
			entsql.EQ(v.C("user_id"), userID),
			entsql.GTE(v.C("viewed_at"), toMillis(since)),
		)).
		OrderBy(entsql.Desc(v.C("viewed_at"))).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query view times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan view time: %w", err)
		}
		times = append(times, fromMillis(ms))
	}
	return times, rows.Err()
}

func (r *viewRepo) TopCards(ctx context.Context, userID int64, limit int) ([]CardViewCount, error) {
	v := r.s.table(tableViews).As("v")
	c := r.s.table(tableCards).As("c")
	query, args := r.s.builder().Select(
		c.C("id"), c.C("user_id"), c.C("set_id"), c.C("word"),
		c.C("translation"), c.C("hint"), c.C("created_at"),
		entsql.As(entsql.Count(v.C("id")), "views"),
	).
		From(v).
		Join(c).On(v.C("card_id"), c.C("id")).
		Where(entsql.EQ(v.C("user_id"), userID)).
		GroupBy(c.C("id")).
		OrderBy(entsql.Desc("views"), c.C("id")).
		Limit(limit).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top cards: %w", err)
	}
	defer rows.Close()

	var top []CardViewCount
	for rows.Next() {
		var (
			vc      CardViewCount
			setID   sql.NullInt64
			created int64
		)
		err := rows.Scan(&vc.Card.ID, &vc.Card.UserID, &setID, &vc.Card.Word,
			&vc.Card.Translation, &vc.Card.Hint, &created, &vc.Views)
		if err != nil {
			return nil, fmt.Errorf("scan top card: %w", err)
		}
		if setID.Valid {
			id := setID.Int64
			vc.Card.SetID = &id
		}
		vc.Card.CreatedAt = fromMillis(created)
		top = append(top, vc)
	}
	return top, rows.Err()
}
