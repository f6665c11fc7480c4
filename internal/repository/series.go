package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seriesbox/seriesbox/internal/domain"
)

// SeriesRepository reads the locally cached series references. Rows are
// created by the rating upsert, never directly.
type SeriesRepository struct {
	pool *pgxpool.Pool
}

const seriesColumns = `
    id,
    tmdb_id,
    name,
    poster_path,
    backdrop_path,
    overview,
    genre,
    first_air_date,
    season_count,
    created_at
`

// GetByTMDBID fetches a cached series by its external TMDB id.
func (r *SeriesRepository) GetByTMDBID(ctx context.Context, tmdbID int64) (domain.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series WHERE tmdb_id = $1`
	series, err := scanSeries(r.pool.QueryRow(ctx, query, tmdbID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Series{}, ErrNotFound
		}
		return domain.Series{}, err
	}
	return series, nil
}

func scanSeries(row pgx.Row) (domain.Series, error) {
	var series domain.Series
	err := row.Scan(
		&series.ID,
		&series.TMDBID,
		&series.Snapshot.Name,
		&series.Snapshot.PosterPath,
		&series.Snapshot.BackdropPath,
		&series.Snapshot.Overview,
		&series.Snapshot.Genre,
		&series.Snapshot.FirstAirDate,
		&series.Snapshot.SeasonCount,
		&series.CreatedAt,
	)
	if err != nil {
		return domain.Series{}, err
	}
	return series, nil
}
