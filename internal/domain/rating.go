package domain

import (
	"fmt"
	"math"
	"time"
)

// RatingStatus is the closed set of watch states a rating can carry.
type RatingStatus string

const (
	StatusWatching    RatingStatus = "watching"
	StatusCompleted   RatingStatus = "completed"
	StatusPlanToWatch RatingStatus = "plan_to_watch"
	StatusDropped     RatingStatus = "dropped"
)

// ParseRatingStatus validates a submitted status value. The empty string
// maps to StatusWatching, matching the storage default.
func ParseRatingStatus(value string) (RatingStatus, error) {
	switch RatingStatus(value) {
	case "":
		return StatusWatching, nil
	case StatusWatching, StatusCompleted, StatusPlanToWatch, StatusDropped:
		return RatingStatus(value), nil
	default:
		return "", fmt.Errorf("unknown rating status %q", value)
	}
}

// MinScore and MaxScore bound a rating's score. Fractional values are
// allowed anywhere inside the range.
const (
	MinScore = 1.0
	MaxScore = 5.0
)

// ValidScore reports whether a submitted score is finite and in range.
func ValidScore(score float64) bool {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false
	}
	return score >= MinScore && score <= MaxScore
}

// Rating is a single user's rating of a series. At most one exists per
// (user, series) pair; resubmission overwrites score/review/status.
type Rating struct {
	ID        int64
	UserID    int64
	SeriesID  int64
	TMDBID    int64
	Score     float64
	Review    *string
	Status    RatingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate provides the community average and count for a series.
type RatingAggregate struct {
	Average float64
	Count   int64
}

// RatingWithAuthor joins a rating with the author's display identity for
// the series review list.
type RatingWithAuthor struct {
	Rating
	Username string
	Avatar   string
}

// RatedSeries joins a rating with the rated series' display snapshot for
// a user's profile shelf.
type RatedSeries struct {
	Rating
	Series SeriesSnapshot
}

// ActivityEntry is one row of the global recent-activity feed.
type ActivityEntry struct {
	Rating
	Username   string
	Avatar     string
	SeriesName string
	PosterPath *string
}
