package domain

import "time"

// SeriesSnapshot carries the denormalized TMDB display fields written once
// when a series row is first created. Later ratings never rewrite it.
type SeriesSnapshot struct {
	Name         string     `json:"name"`
	PosterPath   *string    `json:"posterPath,omitempty"`
	BackdropPath *string    `json:"backdropPath,omitempty"`
	Overview     *string    `json:"overview,omitempty"`
	Genre        *string    `json:"genre,omitempty"`
	FirstAirDate *time.Time `json:"firstAirDate,omitempty"`
	SeasonCount  *int       `json:"seasonCount,omitempty"`
}

// Series is the locally cached reference for an external TMDB series.
// TMDBID is the canonical key used throughout the public API; ID is the
// storage surrogate used only for foreign keys.
type Series struct {
	ID        int64
	TMDBID    int64
	Snapshot  SeriesSnapshot
	CreatedAt time.Time
}
