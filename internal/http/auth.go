package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seriesbox/seriesbox/internal/domain"
	"github.com/seriesbox/seriesbox/internal/repository"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFromContext returns the authenticated user placed in the request
// context by requireAuth. Handlers never read ambient session state.
func identityFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(identityKey).(domain.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// requireAuth resolves the bearer session token to a user and stores the
// identity in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}

		user, err := s.repo.Sessions.GetUserByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
				return
			}
			s.logger.Error().Err(err).Msg("resolve session token")
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to authenticate request")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, user)))
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type userResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio,omitempty"`
	Avatar    string  `json:"avatar"`
	CreatedAt string  `json:"createdAt"`
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if len(req.Username) < 3 || len(req.Username) > 32 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username must be 3-32 characters")
		return
	}
	if !strings.Contains(req.Email, "@") {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register")
		return
	}

	user, err := s.repo.Users.Create(r.Context(), repository.UserCreateParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Username or email already taken")
			return
		}
		s.logger.Error().Err(err).Msg("create user")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register")
		return
	}

	s.openSession(w, r, user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	user, err := s.repo.Users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email or password")
			return
		}
		s.logger.Error().Err(err).Msg("fetch user for login")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid email or password")
		return
	}

	s.openSession(w, r, user, http.StatusOK)
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request, user domain.User, status int) {
	token := uuid.NewString()
	ttl := time.Duration(s.cfg.SessionTTLHours) * time.Hour
	if _, err := s.repo.Sessions.Create(r.Context(), user.ID, token, ttl); err != nil {
		s.logger.Error().Err(err).Msg("create session")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open session")
		return
	}

	s.respondJSON(w, status, authResponse{
		Success: true,
		Token:   token,
		User:    toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := s.repo.Sessions.Delete(r.Context(), token); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error().Err(err).Msg("delete session")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *userResponse `json:"user,omitempty"`
}

// handleSession reports whether the presented token is a live session. An
// absent or stale token is not an error here, unlike the guarded routes.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		s.respondJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	user, err := s.repo.Sessions.GetUserByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
			return
		}
		s.logger.Error().Err(err).Msg("inspect session")
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to inspect session")
		return
	}

	resp := toUserResponse(user)
	s.respondJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: &resp})
}
