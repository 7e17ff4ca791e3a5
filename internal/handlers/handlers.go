package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"opslink/internal/auth"
	"opslink/internal/config"
	"opslink/internal/database"
	"opslink/internal/middleware"
	"opslink/internal/models"
	"opslink/internal/moderation"
	"opslink/internal/oauth"
	"opslink/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Server holds all handler dependencies.
type Server struct {
	DB            *database.MongoDB
	Auth          *auth.Service
	Authenticator *middleware.Authenticator
	Moderation    *moderation.Service
	OAuth         *oauth.Service
	Metrics       *utils.MetricsCollector
	Config        *config.Config
}

// NewServer creates a new Server instance with the given components
func NewServer(
	db *database.MongoDB,
	authSvc *auth.Service,
	authenticator *middleware.Authenticator,
	moderationSvc *moderation.Service,
	oauthSvc *oauth.Service,
	metrics *utils.MetricsCollector,
	cfg *config.Config,
) *Server {
	return &Server{
		DB:            db,
		Auth:          authSvc,
		Authenticator: authenticator,
		Moderation:    moderationSvc,
		OAuth:         oauthSvc,
		Metrics:       metrics,
		Config:        cfg,
	}
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// respondError maps domain errors to HTTP statuses. Unknown errors are
// never echoed back to the client.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.Metrics.IncrementErrors()

	if appErr, ok := err.(*utils.AppError); ok {
		status := utils.AppErrorToHTTPStatus(appErr.Code)
		if status >= 500 {
			slog.Error("request failed", "code", appErr.Code, "error", appErr)
		}
		s.respondJSON(w, status, map[string]string{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}

	slog.Error("request failed", "error", err)
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
	})
}

func decodeBody(r *http.Request, dst any) *utils.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewValidationError("invalid request body")
	}
	return nil
}

// parseIDParam parses a chi URL parameter as a UUID.
func parseIDParam(r *http.Request, name string) (uuid.UUID, *utils.AppError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, utils.NewValidationError("invalid " + name)
	}
	return id, nil
}

func currentUser(r *http.Request) (*models.User, *utils.AppError) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return nil, utils.NewUnauthorizedError("missing user")
	}
	return user, nil
}
