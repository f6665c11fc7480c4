package domain

import "time"

// User represents a registered SeriesBox member.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Bio          *string
	Avatar       string
	CreatedAt    time.Time
}

// UserStats aggregates a user's rating history for their profile page.
// AvgRating is unrounded so it can be composed further; presentation
// rounds to one decimal place.
type UserStats struct {
	TotalRatings   int64
	AvgRating      float64
	CompletedCount int64
}

// Session is a server-side login session resolved from a bearer token.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
