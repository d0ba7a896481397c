package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type learningStatsRepo struct {
	s *Store
}

func (r *learningStatsRepo) Get(ctx context.Context, userID int64) (*LearningStats, error) {
	query, args := r.s.builder().Select("total_views", "last_learned", "last_reminder").
		From(r.s.table(tableLearningStats)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var (
		ls       = LearningStats{UserID: userID}
		learned  sql.NullInt64
		reminded sql.NullInt64
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&ls.TotalViews, &learned, &reminded)
	if errors.Is(err, sql.ErrNoRows) {
		return &ls, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query learning stats: %w", err)
	}
	ls.LastLearned = nullableTime(learned)
	ls.LastReminder = nullableTime(reminded)
	return &ls, nil
}

func (r *learningStatsRepo) MarkReminded(ctx context.Context, userID int64, at time.Time) error {
	ms := toMillis(at)
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		ub := r.s.builder().Update(tableLearningStats).
			Set("last_reminder", ms).
			Where(entsql.EQ("user_id", userID))
		n, err := exec(ctx, tx, ub)
		if err != nil {
			return fmt.Errorf("mark reminded: %w", err)
		}
		if n > 0 {
			return nil
		}

		query, args := r.s.builder().Insert(tableLearningStats).
			Columns("user_id", "total_views", "last_reminder").
			Values(userID, 0, ms).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create learning stats: %w", err)
		}
		return nil
	})
}

func (r *learningStatsRepo) ReminderCandidates(ctx context.Context, cutoff time.Time) ([]User, error) {
	u := r.s.table(tableUsers).As("u")
	ls := r.s.table(tableLearningStats).As("ls")
	c := r.s.table(tableCards)
	ms := toMillis(cutoff)

	hasCards := r.s.builder().Select(c.C("id")).
		From(c).
		Where(entsql.ColumnsEQ(c.C("user_id"), u.C("id")))

	query, args := r.s.builder().Select(
		u.C("id"), u.C("external_id"), u.C("display_name"), u.C("created_at"),
	).
		From(u).
		LeftJoin(ls).On(u.C("id"), ls.C("user_id")).
		Where(entsql.And(
			entsql.Exists(hasCards),
			entsql.Or(entsql.IsNull(ls.C("last_learned")), entsql.LT(ls.C("last_learned"), ms)),
			entsql.Or(entsql.IsNull(ls.C("last_reminder")), entsql.LT(ls.C("last_reminder"), ms)),
		)).
		OrderBy(u.C("id")).
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminder candidates: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			usr     User
			created int64
		)
		if err := rows.Scan(&usr.ID, &usr.ExternalID, &usr.DisplayName, &created); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		usr.CreatedAt = fromMillis(created)
		users = append(users, usr)
	}
	return users, rows.Err()
}
