package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opslink/internal/models"
	"opslink/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (s *staticUserLoader) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	cp := *u
	return &cp, nil
}

func testUser(tokenVersion int) *models.User {
	return &models.User{
		ID:              uuid.New(),
		Email:           "gator@example.com",
		DiscordUsername: "gator",
		Role:            models.RoleUser,
		IsVerified:      true,
		TokenVersion:    tokenVersion,
	}
}

func newTestAuthenticator(users ...*models.User) *Authenticator {
	loader := &staticUserLoader{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		loader.users[u.ID] = u
	}
	return NewAuthenticator("test-secret", loader)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	user := testUser(0)
	auth := newTestAuthenticator(user)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	got, appErr := auth.Authenticate(context.Background(), token)
	require.Nil(t, appErr)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.HashedPassword)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	auth := newTestAuthenticator(testUser(0))

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, appErr := auth.Authenticate(context.Background(), token)
		require.NotNil(t, appErr)
		assert.Equal(t, utils.ErrUnauthorized, appErr.Code)
	}
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	user := testUser(0)
	auth := newTestAuthenticator(user)

	other := NewAuthenticator("other-secret", &staticUserLoader{users: map[uuid.UUID]*models.User{user.ID: user}})
	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, appErr := auth.Authenticate(context.Background(), token)
	require.NotNil(t, appErr)
	assert.Equal(t, utils.ErrUnauthorized, appErr.Code)
}

func TestStaleTokenVersionIsSessionExpired(t *testing.T) {
	user := testUser(0)
	auth := newTestAuthenticator(user)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	// Password reset bumps the stored epoch after the token was issued
	user.TokenVersion = 1

	_, appErr := auth.Authenticate(context.Background(), token)
	require.NotNil(t, appErr)
	assert.Equal(t, utils.ErrSessionExpired, appErr.Code)
}

func TestTokenWithoutVersionClaimIsEpochZero(t *testing.T) {
	user := testUser(0)
	auth := newTestAuthenticator(user)

	// Credentials minted before the tokenVersion claim existed carry no
	// such field at all.
	legacy := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.ID.String(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := legacy.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// Accepted while the stored epoch is still 0
	got, appErr := auth.Authenticate(context.Background(), signed)
	require.Nil(t, appErr)
	assert.Equal(t, user.ID, got.ID)

	// And invalidated by the first reset like any other stale token
	user.TokenVersion = 1
	_, appErr = auth.Authenticate(context.Background(), signed)
	require.NotNil(t, appErr)
	assert.Equal(t, utils.ErrSessionExpired, appErr.Code)
}

func TestMiddlewareRequiresBearerToken(t *testing.T) {
	auth := newTestAuthenticator(testUser(0))

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewarePutsUserInContext(t *testing.T) {
	user := testUser(0)
	auth := newTestAuthenticator(user)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	var seen *models.User
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestCapabilityPolicy(t *testing.T) {
	user := testUser(0)
	admin := testUser(0)
	admin.Role = models.RoleAdmin
	management := testUser(0)
	management.Role = models.RoleManagement

	assert.False(t, Can(nil, CapModerateListings))
	assert.False(t, Can(user, CapModerateListings))
	assert.True(t, Can(admin, CapModerateListings))
	assert.True(t, Can(management, CapModerateListings))

	assert.True(t, Can(admin, CapViewAllListings))

	// Deletion is reserved to management
	assert.False(t, Can(admin, CapDeleteListings))
	assert.True(t, Can(management, CapDeleteListings))
}
