package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seriesbox/seriesbox/internal/domain"
)

// UsersRepository provides persistence helpers for user accounts.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `
    id,
    username,
    email,
    password_hash,
    bio,
    avatar,
    created_at
`

// UserCreateParams bundles the fields required to register a user.
type UserCreateParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// Create inserts a new user row. Duplicate username or email returns
// ErrConflict.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (username, email, password_hash)
        VALUES ($1,$2,$3)
        RETURNING %s
    `, userColumns)

	row := r.pool.QueryRow(ctx, query, params.Username, params.Email, params.PasswordHash)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrConflict
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByID fetches a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByEmail fetches a user by email for credential checks.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateBio replaces the user's profile bio.
func (r *UsersRepository) UpdateBio(ctx context.Context, userID int64, bio *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET bio = $2 WHERE id = $1`, userID, bio)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar replaces the user's avatar reference.
func (r *UsersRepository) UpdateAvatar(ctx context.Context, userID int64, avatar string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET avatar = $2 WHERE id = $1`, userID, avatar)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates the user's rating history. The average is unrounded;
// presentation rounds it.
func (r *UsersRepository) Stats(ctx context.Context, userID int64) (domain.UserStats, error) {
	const query = `
        SELECT COUNT(*)::int8 AS total_ratings,
               COALESCE(AVG(score), 0)::float8 AS avg_rating,
               COUNT(*) FILTER (WHERE status = 'completed')::int8 AS completed_count
        FROM ratings
        WHERE user_id = $1
    `

	var stats domain.UserStats
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stats.TotalRatings,
		&stats.AvgRating,
		&stats.CompletedCount,
	)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("aggregate user stats: %w", err)
	}
	return stats, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Bio,
		&user.Avatar,
		&user.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
