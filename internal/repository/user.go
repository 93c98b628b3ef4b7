package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventpulse/internal/model"
)

const uniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	profile := u.Profile
	if profile == nil {
		profile = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, name, photo_url, role, profile, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PhotoURL, u.Role, profile, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail returns the user with exactly this email or ErrNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, photo_url, role, profile, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.Profile, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(u.Profile) == 0 {
		u.Profile = nil
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
