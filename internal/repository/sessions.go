package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seriesbox/seriesbox/internal/domain"
)

// SessionsRepository stores server-side login sessions keyed by an opaque
// bearer token.
type SessionsRepository struct {
	pool *pgxpool.Pool
}

// Create opens a session for the user.
func (r *SessionsRepository) Create(ctx context.Context, userID int64, token string, ttl time.Duration) (domain.Session, error) {
	const query = `
        INSERT INTO sessions (token, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING token, user_id, created_at, expires_at
    `

	expiresAt := time.Now().UTC().Add(ttl)
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, token, userID, expiresAt).Scan(
		&session.Token,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetUserByToken resolves a live session token to its user. Expired or
// unknown tokens return ErrNotFound.
func (r *SessionsRepository) GetUserByToken(ctx context.Context, token string) (domain.User, error) {
	const query = `
        SELECT u.id, u.username, u.email, u.password_hash, u.bio, u.avatar, u.created_at
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.token = $1 AND s.expires_at > now()
    `

	user, err := scanUser(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// Delete removes a session, logging the user out.
func (r *SessionsRepository) Delete(ctx context.Context, token string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired prunes sessions past their expiry and reports how many
// were removed.
func (r *SessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
