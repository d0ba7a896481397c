package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type userRepo struct {
	s *Store
}

var userColumns = []string{"id", "external_id", "display_name", "created_at"}

func (r *userRepo) FindOrCreate(ctx context.Context, externalID int64, displayName string) (*User, error) {
	u, err := r.GetByExternalID(ctx, externalID)
	if err == nil {
		if displayName != "" && u.DisplayName != displayName {
			if err := r.rename(ctx, u.ID, displayName); err != nil {
				return nil, err
			}
			u.DisplayName = displayName
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	ib := r.s.builder().Insert(tableUsers).
		Columns("external_id", "display_name", "created_at").
		Values(externalID, displayName, toMillis(now))
	id, err := r.s.insert(ctx, r.s.db, ib)
	if err != nil {
		// A concurrent first event from the same user may have won the race.
		if u, gerr := r.GetByExternalID(ctx, externalID); gerr == nil {
			return u, nil
		}
		return nil, fmt.Errorf("create user %d: %w", externalID, err)
	}
	return &User{ID: id, ExternalID: externalID, DisplayName: displayName, CreatedAt: fromMillis(toMillis(now))}, nil
}

func (r *userRepo) Get(ctx context.Context, id int64) (*User, error) {
	return r.getBy(ctx, entsql.EQ("id", id))
}

func (r *userRepo) GetByExternalID(ctx context.Context, externalID int64) (*User, error) {
	return r.getBy(ctx, entsql.EQ("external_id", externalID))
}

func (r *userRepo) getBy(ctx context.Context, p *entsql.Predicate) (*User, error) {
	query, args := r.s.builder().Select(userColumns...).
		From(r.s.table(tableUsers)).
		Where(p).
		Query()

	var (
		u       User
		created int64
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.ExternalID, &u.DisplayName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (r *userRepo) rename(ctx context.Context, id int64, name string) error {
	ub := r.s.builder().Update(tableUsers).Set("display_name", name).Where(entsql.EQ("id", id))
	if _, err := exec(ctx, r.s.db, ub); err != nil {
		return fmt.Errorf("rename user %d: %w", id, err)
	}
	return nil
}
