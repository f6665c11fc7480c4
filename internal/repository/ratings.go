package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seriesbox/seriesbox/internal/domain"
)

// RatingsRepository owns the rating rows and their aggregates. All public
// entry points key series by the external TMDB id.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingUpsertParams captures the payload required to upsert a rating.
// Snapshot is only written when the series row does not exist yet.
type RatingUpsertParams struct {
	UserID   int64
	TMDBID   int64
	Score    float64
	Review   *string
	Status   domain.RatingStatus
	Snapshot domain.SeriesSnapshot
}

// Upsert inserts or updates the caller's rating for a series in a single
// atomic statement and indicates whether it was newly created. The series
// row is created on first contact; the dummy DO UPDATE on tmdb_id makes
// the CTE return the existing id without a separate read, so two
// concurrent first-time ratings cannot race.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.Rating, bool, error) {
	const query = `
        WITH series_row AS (
            INSERT INTO series (tmdb_id, name, poster_path, backdrop_path, overview, genre, first_air_date, season_count)
            VALUES ($2,$3,$4,$5,$6,$7,$8,$9)
            ON CONFLICT (tmdb_id) DO UPDATE SET tmdb_id = EXCLUDED.tmdb_id
            RETURNING id
        )
        INSERT INTO ratings (user_id, series_id, score, review, status)
        SELECT $1, series_row.id, $10, $11, $12 FROM series_row
        ON CONFLICT (user_id, series_id)
        DO UPDATE SET score = EXCLUDED.score,
                      review = EXCLUDED.review,
                      status = EXCLUDED.status,
                      updated_at = now()
        RETURNING id, user_id, series_id, score, review, status, created_at, updated_at, (xmax = 0) AS inserted
    `

	var (
		rating   domain.Rating
		status   string
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query,
		params.UserID,
		params.TMDBID,
		params.Snapshot.Name,
		params.Snapshot.PosterPath,
		params.Snapshot.BackdropPath,
		params.Snapshot.Overview,
		params.Snapshot.Genre,
		params.Snapshot.FirstAirDate,
		params.Snapshot.SeasonCount,
		params.Score,
		params.Review,
		string(params.Status),
	).Scan(
		&rating.ID,
		&rating.UserID,
		&rating.SeriesID,
		&rating.Score,
		&rating.Review,
		&status,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Rating{}, false, fmt.Errorf("upsert rating: %w", err)
	}

	rating.TMDBID = params.TMDBID
	rating.Status = domain.RatingStatus(status)
	return rating, inserted, nil
}

// GetForUser retrieves the caller's rating for a series.
func (r *RatingsRepository) GetForUser(ctx context.Context, userID, tmdbID int64) (domain.Rating, error) {
	const query = `
        SELECT r.id, r.user_id, r.series_id, s.tmdb_id, r.score, r.review, r.status, r.created_at, r.updated_at
        FROM ratings r
        JOIN series s ON s.id = r.series_id
        WHERE r.user_id = $1 AND s.tmdb_id = $2
    `

	rating, err := scanRating(r.pool.QueryRow(ctx, query, userID, tmdbID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// Delete removes the caller's rating for a series. Aggregates shrink on
// the next read; nothing else to clean up.
func (r *RatingsRepository) Delete(ctx context.Context, userID, tmdbID int64) error {
	const query = `
        DELETE FROM ratings r
        USING series s
        WHERE r.series_id = s.id AND r.user_id = $1 AND s.tmdb_id = $2
    `

	tag, err := r.pool.Exec(ctx, query, userID, tmdbID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AggregateBySeries returns the unrounded rating average and count for a
// series. Unknown series yield a zero aggregate, never an error.
func (r *RatingsRepository) AggregateBySeries(ctx context.Context, tmdbID int64) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(AVG(r.score), 0)::float8 AS average,
               COUNT(*)::int8 AS count
        FROM ratings r
        JOIN series s ON s.id = r.series_id
        WHERE s.tmdb_id = $1
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, tmdbID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

// ListBySeries returns all ratings for a series joined with the author's
// display identity, newest first.
func (r *RatingsRepository) ListBySeries(ctx context.Context, tmdbID int64) ([]domain.RatingWithAuthor, error) {
	const query = `
        SELECT r.id, r.user_id, r.series_id, s.tmdb_id, r.score, r.review, r.status, r.created_at, r.updated_at,
               u.username, u.avatar
        FROM ratings r
        JOIN series s ON s.id = r.series_id
        JOIN users u ON u.id = r.user_id
        WHERE s.tmdb_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `

	rows, err := r.pool.Query(ctx, query, tmdbID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.RatingWithAuthor, 0)
	for rows.Next() {
		var (
			entry  domain.RatingWithAuthor
			status string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SeriesID,
			&entry.TMDBID,
			&entry.Score,
			&entry.Review,
			&status,
			&entry.CreatedAt,
			&entry.UpdatedAt,
			&entry.Username,
			&entry.Avatar,
		)
		if err != nil {
			return nil, err
		}
		entry.Status = domain.RatingStatus(status)
		reviews = append(reviews, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListByUser returns the user's ratings joined with the series display
// snapshot, newest first.
func (r *RatingsRepository) ListByUser(ctx context.Context, userID int64) ([]domain.RatedSeries, error) {
	const query = `
        SELECT r.id, r.user_id, r.series_id, s.tmdb_id, r.score, r.review, r.status, r.created_at, r.updated_at,
               s.name, s.poster_path, s.backdrop_path, s.overview, s.genre, s.first_air_date, s.season_count
        FROM ratings r
        JOIN series s ON s.id = r.series_id
        WHERE r.user_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.RatedSeries, 0)
	for rows.Next() {
		var (
			item   domain.RatedSeries
			status string
		)
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.SeriesID,
			&item.TMDBID,
			&item.Score,
			&item.Review,
			&status,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Series.Name,
			&item.Series.PosterPath,
			&item.Series.BackdropPath,
			&item.Series.Overview,
			&item.Series.Genre,
			&item.Series.FirstAirDate,
			&item.Series.SeasonCount,
		)
		if err != nil {
			return nil, err
		}
		item.Status = domain.RatingStatus(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanRating(row pgx.Row) (domain.Rating, error) {
	var (
		rating domain.Rating
		status string
	)
	err := row.Scan(
		&rating.ID,
		&rating.UserID,
		&rating.SeriesID,
		&rating.TMDBID,
		&rating.Score,
		&rating.Review,
		&status,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		return domain.Rating{}, err
	}
	rating.Status = domain.RatingStatus(status)
	return rating, nil
}

// ActivityCursor allows stable feed pagination by updated_at/id.
type ActivityCursor struct {
	UpdatedAt time.Time `json:"updatedAt"`
	ID        int64     `json:"id"`
}

// ActivityPage is one page of the recent-activity feed.
type ActivityPage struct {
	Items      []domain.ActivityEntry
	NextCursor *string
}

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 50
)

// RecentActivity returns the most recently created-or-updated ratings
// across all users, newest first, joined with the author identity and the
// series display name so the feed needs no further lookups.
func (r *RatingsRepository) RecentActivity(ctx context.Context, limit int, cursor *ActivityCursor) (ActivityPage, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	} else if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	query := `
        SELECT r.id, r.user_id, r.series_id, s.tmdb_id, r.score, r.review, r.status, r.created_at, r.updated_at,
               u.username, u.avatar, s.name, s.poster_path
        FROM ratings r
        JOIN series s ON s.id = r.series_id
        JOIN users u ON u.id = r.user_id
    `
	args := []interface{}{}
	if cursor != nil {
		query += ` WHERE (r.updated_at, r.id) < ($1, $2)`
		args = append(args, cursor.UpdatedAt, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY r.updated_at DESC, r.id DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ActivityPage{}, err
	}
	defer rows.Close()

	items := make([]domain.ActivityEntry, 0, limit)
	for rows.Next() {
		var (
			entry  domain.ActivityEntry
			status string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SeriesID,
			&entry.TMDBID,
			&entry.Score,
			&entry.Review,
			&status,
			&entry.CreatedAt,
			&entry.UpdatedAt,
			&entry.Username,
			&entry.Avatar,
			&entry.SeriesName,
			&entry.PosterPath,
		)
		if err != nil {
			return ActivityPage{}, err
		}
		entry.Status = domain.RatingStatus(status)
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return ActivityPage{}, err
	}

	page := ActivityPage{Items: items}
	if len(items) == limit {
		last := items[len(items)-1]
		token, err := encodeActivityCursor(ActivityCursor{UpdatedAt: last.UpdatedAt, ID: last.ID})
		if err != nil {
			return ActivityPage{}, err
		}
		page.NextCursor = &token
	}
	return page, nil
}

func encodeActivityCursor(c ActivityCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeActivityCursor parses a cursor token into an ActivityCursor.
func DecodeActivityCursor(token string) (*ActivityCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor ActivityCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
