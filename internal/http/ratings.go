package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/seriesbox/seriesbox/internal/domain"
	"github.com/seriesbox/seriesbox/internal/repository"
	"github.com/seriesbox/seriesbox/internal/tmdb"
)

const maxReviewLength = 5000

type snapshotPayload struct {
	Name         string  `json:"name"`
	PosterPath   *string `json:"posterPath"`
	BackdropPath *string `json:"backdropPath"`
	Overview     *string `json:"overview"`
	Genre        *string `json:"genre"`
	FirstAirDate *string `json:"firstAirDate"`
	SeasonCount  *int    `json:"seasonCount"`
}

type ratingSubmitRequest struct {
	SeriesID int64            `json:"seriesId"`
	Score    float64          `json:"score"`
	Review   *string          `json:"review"`
	Status   string           `json:"status"`
	Snapshot *snapshotPayload `json:"snapshot"`
}

type ratingResponse struct {
	SeriesID  int64     `json:"seriesId"`
	Score     float64   `json:"score"`
	Review    *string   `json:"review,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ratingSubmitResponse struct {
	Success bool           `json:"success"`
	Rating  ratingResponse `json:"rating"`
}

func toRatingResponse(rating domain.Rating) ratingResponse {
	return ratingResponse{
		SeriesID:  rating.TMDBID,
		Score:     rating.Score,
		Review:    rating.Review,
		Status:    string(rating.Status),
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req ratingSubmitRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	if req.SeriesID <= 0 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "seriesId must be a positive integer")
		return
	}
	if !domain.ValidScore(req.Score) {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "score must be between 1 and 5")
		return
	}
	status, err := domain.ParseRatingStatus(req.Status)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "status must be one of watching, completed, plan_to_watch, dropped")
		return
	}
	if req.Review != nil && len(*req.Review) > maxReviewLength {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "review is too long")
		return
	}

	snapshot, err := s.resolveSnapshot(r.Context(), req.SeriesID, req.Snapshot)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	rating, inserted, err := s.repo.Ratings.Upsert(r.Context(), repository.RatingUpsertParams{
		UserID:   identity.ID,
		TMDBID:   req.SeriesID,
		Score:    req.Score,
		Review:   normalizeStringPtr(req.Review),
		Status:   status,
		Snapshot: snapshot,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", identity.ID).Int64("series_id", req.SeriesID).Msg("upsert rating")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save rating")
		return
	}

	respStatus := http.StatusOK
	if inserted {
		respStatus = http.StatusCreated
	}
	s.respondJSON(w, respStatus, ratingSubmitResponse{
		Success: true,
		Rating:  toRatingResponse(rating),
	})
}

// resolveSnapshot picks the display snapshot written if this is the first
// rating for the series. A submitted snapshot wins; otherwise the TMDB
// client is asked, and a lookup failure degrades to an empty snapshot
// rather than failing the write.
func (s *Server) resolveSnapshot(ctx context.Context, seriesID int64, payload *snapshotPayload) (domain.SeriesSnapshot, error) {
	if payload != nil && strings.TrimSpace(payload.Name) != "" {
		snapshot := domain.SeriesSnapshot{
			Name:         strings.TrimSpace(payload.Name),
			PosterPath:   normalizeStringPtr(payload.PosterPath),
			BackdropPath: normalizeStringPtr(payload.BackdropPath),
			Overview:     payload.Overview,
			Genre:        normalizeStringPtr(payload.Genre),
			SeasonCount:  payload.SeasonCount,
		}
		if payload.FirstAirDate != nil && *payload.FirstAirDate != "" {
			parsed, err := time.Parse("2006-01-02", *payload.FirstAirDate)
			if err != nil {
				return domain.SeriesSnapshot{}, errors.New("snapshot firstAirDate must follow YYYY-MM-DD format")
			}
			snapshot.FirstAirDate = &parsed
		}
		return snapshot, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TMDBTimeoutSecs)*time.Second)
	defer cancel()

	fetched, err := s.tmdb.Lookup(lookupCtx, seriesID)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNotFound) {
			s.logger.Warn().Err(err).Int64("series_id", seriesID).Msg("tmdb lookup failed")
		}
		return domain.SeriesSnapshot{}, nil
	}
	return *fetched, nil
}

func (s *Server) handleGetOwnRating(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	seriesID, err := idParam(r, "seriesID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	rating, err := s.repo.Ratings.GetForUser(r.Context(), identity.ID, seriesID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondJSON(w, http.StatusOK, map[string]interface{}{"rating": nil})
			return
		}
		s.logger.Error().Err(err).Int64("user_id", identity.ID).Int64("series_id", seriesID).Msg("fetch own rating")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"rating": toRatingResponse(rating)})
}

func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	seriesID, err := idParam(r, "seriesID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := s.repo.Ratings.Delete(r.Context(), identity.ID, seriesID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Rating not found")
			return
		}
		s.logger.Error().Err(err).Int64("user_id", identity.ID).Int64("series_id", seriesID).Msg("delete rating")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete rating")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type reviewResponse struct {
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Score     float64   `json:"score"`
	Review    *string   `json:"review,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type seriesRatingsResponse struct {
	Average float64           `json:"average"`
	Count   int64             `json:"count"`
	Series  *snapshotResponse `json:"series,omitempty"`
	Reviews []reviewResponse  `json:"reviews"`
}

func (s *Server) handleSeriesRatings(w http.ResponseWriter, r *http.Request) {
	seriesID, err := idParam(r, "seriesID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	agg, err := s.repo.Ratings.AggregateBySeries(r.Context(), seriesID)
	if err != nil {
		s.logger.Error().Err(err).Int64("series_id", seriesID).Msg("aggregate series ratings")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ratings")
		return
	}

	reviews, err := s.repo.Ratings.ListBySeries(r.Context(), seriesID)
	if err != nil {
		s.logger.Error().Err(err).Int64("series_id", seriesID).Msg("list series ratings")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ratings")
		return
	}

	resp := seriesRatingsResponse{
		Average: roundToOneDecimal(agg.Average),
		Count:   agg.Count,
		Reviews: make([]reviewResponse, 0, len(reviews)),
	}

	// Unknown series simply have no cached snapshot to show.
	series, err := s.repo.Series.GetByTMDBID(r.Context(), seriesID)
	switch {
	case err == nil:
		snapshot := toSnapshotResponse(series.Snapshot)
		resp.Series = &snapshot
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Error().Err(err).Int64("series_id", seriesID).Msg("fetch series snapshot")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ratings")
		return
	}
	for _, review := range reviews {
		resp.Reviews = append(resp.Reviews, reviewResponse{
			Username:  review.Username,
			Avatar:    review.Avatar,
			Score:     review.Score,
			Review:    review.Review,
			Status:    string(review.Status),
			CreatedAt: review.CreatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type activityEntryResponse struct {
	Username   string    `json:"username"`
	Avatar     string    `json:"avatar"`
	SeriesID   int64     `json:"seriesId"`
	SeriesName string    `json:"seriesName"`
	PosterPath *string   `json:"posterPath,omitempty"`
	Score      float64   `json:"score"`
	Review     *string   `json:"review,omitempty"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type activityFeedResponse struct {
	Activities []activityEntryResponse `json:"activities"`
	NextCursor *string                 `json:"nextCursor,omitempty"`
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid limit value")
			return
		}
		limit = parsed
	}

	cursor, err := repository.DecodeActivityCursor(strings.TrimSpace(r.URL.Query().Get("cursor")))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid cursor")
		return
	}

	page, err := s.repo.Ratings.RecentActivity(r.Context(), limit, cursor)
	if err != nil {
		s.logger.Error().Err(err).Msg("fetch recent activity")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch activity")
		return
	}

	resp := activityFeedResponse{
		Activities: make([]activityEntryResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for _, entry := range page.Items {
		resp.Activities = append(resp.Activities, activityEntryResponse{
			Username:   entry.Username,
			Avatar:     entry.Avatar,
			SeriesID:   entry.TMDBID,
			SeriesName: entry.SeriesName,
			PosterPath: entry.PosterPath,
			Score:      entry.Score,
			Review:     entry.Review,
			Status:     string(entry.Status),
			UpdatedAt:  entry.UpdatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}
