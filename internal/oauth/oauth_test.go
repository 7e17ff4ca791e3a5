package oauth

import (
	"context"
	"testing"
	"time"

	"opslink/internal/models"
	"opslink/internal/tokencache"
	"opslink/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{}

func (fakeProvider) Name() string                     { return "fake" }
func (fakeProvider) AuthorizeURL(state string) string { return "https://fake.example/auth?state=" + state }

func (fakeProvider) Exchange(_ context.Context, code string) (*Token, error) {
	return &Token{AccessToken: "at-" + code, RefreshToken: "rt"}, nil
}

func (fakeProvider) Profile(_ context.Context, _ *Token) (*Profile, error) {
	return &Profile{Username: "gator", ProfileURL: "https://fake.example/gator"}, nil
}

type memUserStore struct {
	users map[uuid.UUID]*models.User
}

func (m *memUserStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	return u, nil
}

func (m *memUserStore) SaveUser(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func newTestService(t *testing.T) (*Service, *models.User) {
	t.Helper()
	user := &models.User{ID: uuid.New(), DiscordUsername: "gator"}
	store := &memUserStore{users: map[uuid.UUID]*models.User{user.ID: user}}
	cache := tokencache.New(time.Minute)
	t.Cleanup(cache.Close)

	svc := &Service{
		providers: map[string]Provider{"fake": fakeProvider{}},
		users:     store,
		states:    cache,
	}
	return svc, user
}

func TestBeginUnknownProvider(t *testing.T) {
	svc, user := newTestService(t)

	_, err := svc.Begin("myspace", user.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestLinkFlowStoresSocial(t *testing.T) {
	svc, user := newTestService(t)

	authorizeURL, err := svc.Begin("fake", user.ID)
	require.NoError(t, err)
	require.Contains(t, authorizeURL, "state=")

	state := authorizeURL[len("https://fake.example/auth?state="):]
	linked, err := svc.Complete(context.Background(), "fake", state, "code123")
	require.NoError(t, err)

	social, ok := linked.Socials["fake"]
	require.True(t, ok)
	assert.True(t, social.Connected)
	assert.Equal(t, "gator", social.Username)
	assert.Equal(t, "https://fake.example/gator", social.ProfileURL)
	assert.Equal(t, "at-code123", social.AccessToken)
}

func TestStateIsSingleUse(t *testing.T) {
	svc, user := newTestService(t)

	authorizeURL, err := svc.Begin("fake", user.ID)
	require.NoError(t, err)
	state := authorizeURL[len("https://fake.example/auth?state="):]

	_, err = svc.Complete(context.Background(), "fake", state, "code123")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "fake", state, "code123")
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestUnlink(t *testing.T) {
	svc, user := newTestService(t)
	user.Socials = map[string]models.SocialLink{
		"fake": {Connected: true, Username: "gator"},
	}

	require.NoError(t, svc.Unlink(context.Background(), "fake", user.ID))
	assert.NotContains(t, user.Socials, "fake")

	err := svc.Unlink(context.Background(), "fake", user.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrNotFound))
}
