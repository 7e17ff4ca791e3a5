package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"opslink/internal/config"
	"opslink/internal/middleware"
	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareServer() *Server {
	return &Server{Metrics: utils.NewMetricsCollector()}
}

func TestHandleHealth(t *testing.T) {
	s := newBareServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.HandleHealth().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRespondErrorMapsAppErrorCodes(t *testing.T) {
	s := newBareServer()

	cases := []struct {
		err    error
		status int
	}{
		{utils.NewListingNotFoundError("x"), http.StatusNotFound},
		{utils.NewValidationError("bad"), http.StatusBadRequest},
		{utils.NewUnauthorizedError("no"), http.StatusUnauthorized},
		{utils.NewAppError(utils.ErrSessionExpired, "stale", nil), http.StatusUnauthorized},
		{utils.NewForbiddenError("no"), http.StatusForbidden},
		{utils.NewAppError(utils.ErrUnverified, "verify first", nil), http.StatusForbidden},
		{utils.NewDuplicateError("email"), http.StatusConflict},
		{utils.NewConflictError("retry"), http.StatusConflict},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		s.respondError(w, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
		assert.NotEmpty(t, body["code"])
	}
}

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	s := newBareServer()

	w := httptest.NewRecorder()
	s.respondError(w, errors.New("dial tcp 10.0.0.3:27017: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestDecodeBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{not json"))

	var dst struct{}
	appErr := decodeBody(req, &dst)
	require.NotNil(t, appErr)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}

type noUserLoader struct{}

func (noUserLoader) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

// Edit resolution is addressed by listing id with the edit request id
// in the body, so the paths must resolve before authentication runs.
func TestEditResolutionRoutesResolve(t *testing.T) {
	s := &Server{
		Metrics:       utils.NewMetricsCollector(),
		Config:        &config.Config{},
		Authenticator: middleware.NewAuthenticator("test-secret", noUserLoader{}),
	}
	router := s.Routes()

	for _, action := range []string{"edit-approve", "edit-deny"} {
		path := "/api/servers/" + uuid.NewString() + "/" + action
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"editRequestId":"`+uuid.NewString()+`"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		// 401 from the bearer check, not 404 from the router.
		assert.Equal(t, http.StatusUnauthorized, w.Code, "POST %s", path)
	}
}

func TestResolveEditRequiresEditRequestID(t *testing.T) {
	s := newBareServer()

	req := httptest.NewRequest(http.MethodPost, "/api/servers/"+uuid.NewString()+"/edit-approve", strings.NewReader(`{}`))
	req = withURLParam(req, "id", uuid.NewString())
	w := httptest.NewRecorder()
	s.HandleApproveEdit().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "editRequestId")
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
