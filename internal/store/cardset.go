package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type setRepo struct {
	s *Store
}

var setColumns = []string{"id", "user_id", "name", "created_at"}

// nameKey folds a set name for case-insensitive uniqueness.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *setRepo) Create(ctx context.Context, userID int64, name string) (*CardSet, error) {
	name = strings.TrimSpace(name)
	if _, err := r.FindByName(ctx, userID, name); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	ib := r.s.builder().Insert(tableSets).
		Columns("user_id", "name", "name_key", "created_at").
		Values(userID, name, nameKey(name), toMillis(now))
	id, err := r.s.insert(ctx, r.s.db, ib)
	if err != nil {
		if _, ferr := r.FindByName(ctx, userID, name); ferr == nil {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create set %q: %w", name, err)
	}
	return &CardSet{ID: id, UserID: userID, Name: name, CreatedAt: fromMillis(toMillis(now))}, nil
}

func (r *setRepo) Get(ctx context.Context, userID, setID int64) (*CardSet, error) {
	return r.getBy(ctx, entsql.And(entsql.EQ("id", setID), entsql.EQ("user_id", userID)))
}

func (r *setRepo) FindByName(ctx context.Context, userID int64, name string) (*CardSet, error) {
	return r.getBy(ctx, entsql.And(entsql.EQ("user_id", userID), entsql.EQ("name_key", nameKey(name))))
}

func (r *setRepo) List(ctx context.Context, userID int64) ([]CardSet, error) {
	query, args := r.s.builder().Select(setColumns...).
		From(r.s.table(tableSets)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("name_key", "id").
		Query()

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	var sets []CardSet
	for rows.Next() {
		var (
			cs      CardSet
			created int64
		)
		if err := rows.Scan(&cs.ID, &cs.UserID, &cs.Name, &created); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		cs.CreatedAt = fromMillis(created)
		sets = append(sets, cs)
	}
	return sets, rows.Err()
}

func (r *setRepo) Delete(ctx context.Context, userID, setID int64) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		detach := r.s.builder().Update(tableCards).
			SetNull("set_id").
			Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("set_id", setID)))
		if _, err := exec(ctx, tx, detach); err != nil {
			return fmt.Errorf("detach cards of set %d: %w", setID, err)
		}

		del := r.s.builder().Delete(tableSets).
			Where(entsql.And(entsql.EQ("id", setID), entsql.EQ("user_id", userID)))
		n, err := exec(ctx, tx, del)
		if err != nil {
			return fmt.Errorf("delete set %d: %w", setID, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *setRepo) getBy(ctx context.Context, p *entsql.Predicate) (*CardSet, error) {
	query, args := r.s.builder().Select(setColumns...).
		From(r.s.table(tableSets)).
		Where(p).
		Query()

	var (
		cs      CardSet
		created int64
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&cs.ID, &cs.UserID, &cs.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query set: %w", err)
	}
	cs.CreatedAt = fromMillis(created)
	return &cs, nil
}
