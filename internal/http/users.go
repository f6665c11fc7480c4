package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/seriesbox/seriesbox/internal/domain"
	"github.com/seriesbox/seriesbox/internal/repository"
)

type profileResponse struct {
	User  userResponse  `json:"user"`
	Stats statsResponse `json:"stats"`
}

type statsResponse struct {
	TotalRatings   int64   `json:"totalRatings"`
	AvgRating      float64 `json:"avgRating"`
	CompletedCount int64   `json:"completedCount"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	user, err := s.repo.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("fetch profile")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch profile")
		return
	}

	stats, err := s.repo.Users.Stats(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("fetch profile stats")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch profile")
		return
	}

	s.respondJSON(w, http.StatusOK, profileResponse{
		User: toUserResponse(user),
		Stats: statsResponse{
			TotalRatings:   stats.TotalRatings,
			AvgRating:      roundToOneDecimal(stats.AvgRating),
			CompletedCount: stats.CompletedCount,
		},
	})
}

type profileUpdateRequest struct {
	Bio *string `json:"bio"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req profileUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Bio != nil && len(*req.Bio) > 1000 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "bio must be at most 1000 characters")
		return
	}

	if err := s.repo.Users.UpdateBio(r.Context(), identity.ID, normalizeStringPtr(req.Bio)); err != nil {
		s.logger.Error().Err(err).Int64("user_id", identity.ID).Msg("update bio")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type avatarUpdateRequest struct {
	Avatar string `json:"avatar"`
}

// handleUpdateAvatar records the avatar reference returned by the external
// image host; the bytes never pass through this service.
func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	var req avatarUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" || len(avatar) > 255 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "avatar reference is required")
		return
	}

	if err := s.repo.Users.UpdateAvatar(r.Context(), identity.ID, avatar); err != nil {
		s.logger.Error().Err(err).Int64("user_id", identity.ID).Msg("update avatar")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update avatar")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "avatar": avatar})
}

type ratedSeriesResponse struct {
	SeriesID  int64            `json:"seriesId"`
	Score     float64          `json:"score"`
	Review    *string          `json:"review,omitempty"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Series    snapshotResponse `json:"series"`
}

func (s *Server) handleListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	items, err := s.repo.Ratings.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("list user ratings")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list ratings")
		return
	}

	resp := make([]ratedSeriesResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, ratedSeriesResponse{
			SeriesID:  item.TMDBID,
			Score:     item.Score,
			Review:    item.Review,
			Status:    string(item.Status),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
			Series:    toSnapshotResponse(item.Series),
		})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

type snapshotResponse struct {
	Name         string  `json:"name"`
	PosterPath   *string `json:"posterPath,omitempty"`
	BackdropPath *string `json:"backdropPath,omitempty"`
	Overview     *string `json:"overview,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	FirstAirDate *string `json:"firstAirDate,omitempty"`
	SeasonCount  *int    `json:"seasonCount,omitempty"`
}

func toSnapshotResponse(snapshot domain.SeriesSnapshot) snapshotResponse {
	resp := snapshotResponse{
		Name:         snapshot.Name,
		PosterPath:   snapshot.PosterPath,
		BackdropPath: snapshot.BackdropPath,
		Overview:     snapshot.Overview,
		Genre:        snapshot.Genre,
		SeasonCount:  snapshot.SeasonCount,
	}
	if snapshot.FirstAirDate != nil {
		formatted := snapshot.FirstAirDate.Format("2006-01-02")
		resp.FirstAirDate = &formatted
	}
	return resp
}
