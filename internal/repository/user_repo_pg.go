package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	GetByName(ctx context.Context, name string) (*domain.User, error)
	TouchActivity(ctx context.Context, userID string, at time.Time) error
	// CountActiveSince counts users whose last activity is at or after since.
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
}

type PGUserRepository struct {
	pgBase
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{pgBase{db: db}}
}

func (r *PGUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	var u domain.User
	err := r.queryRow(ctx, `SELECT id, name, is_admin, last_activity_at FROM users WHERE name = $1`, name).
		Scan(&u.ID, &u.Name, &u.IsAdmin, &u.LastActivityAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *PGUserRepository) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	tag, err := r.exec(ctx, `UPDATE users SET last_activity_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("touch user activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PGUserRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_activity_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return n, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
