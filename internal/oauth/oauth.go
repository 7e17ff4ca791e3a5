// internal/oauth/oauth.go
// Package oauth links external accounts (GitHub, Twitch, Spotify) to a
// user via the standard authorization-code flow.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"opslink/internal/config"
	"opslink/internal/models"
	"opslink/internal/tokencache"
	"opslink/internal/utils"

	"github.com/google/uuid"
)

const stateTTL = 10 * time.Minute

// Token is the credential pair returned by a provider's token endpoint.
type Token struct {
	AccessToken  string
	RefreshToken string
}

// Profile is the minimal identity we store on the user document.
type Profile struct {
	Username   string
	ProfileURL string
}

// Provider implements one external OAuth service.
type Provider interface {
	Name() string
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	Profile(ctx context.Context, token *Token) (*Profile, error)
}

// UserStore is the subset of the user repository the linker needs.
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// Service holds the provider registry and drives the link flow.
type Service struct {
	providers map[string]Provider
	users     UserStore
	states    *tokencache.Cache
}

// NewService builds providers for every configured entry. Providers
// without credentials are simply absent from the registry.
func NewService(cfgs map[string]config.OAuthProviderConfig, users UserStore, states *tokencache.Cache) *Service {
	s := &Service{
		providers: make(map[string]Provider),
		users:     users,
		states:    states,
	}
	for name, cfg := range cfgs {
		switch name {
		case "github":
			s.register(NewGitHub(cfg))
		case "twitch":
			s.register(NewTwitch(cfg))
		case "spotify":
			s.register(NewSpotify(cfg))
		}
	}
	return s
}

func (s *Service) register(p Provider) {
	s.providers[p.Name()] = p
}

// Begin returns the provider authorize URL with a fresh single-use
// state nonce bound to the requesting user.
func (s *Service) Begin(providerName string, userID uuid.UUID) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", utils.NewValidationError("unknown provider: " + providerName)
	}

	state := uuid.NewString()
	s.states.Put("oauth:"+state, userID.String(), stateTTL)
	return p.AuthorizeURL(state), nil
}

// Complete validates the callback state, exchanges the code and stores
// the resulting social link on the user.
func (s *Service) Complete(ctx context.Context, providerName, state, code string) (*models.User, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, utils.NewValidationError("unknown provider: " + providerName)
	}

	userIDStr, ok := s.states.Take("oauth:" + state)
	if !ok {
		return nil, utils.NewValidationError("invalid or expired state")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in state cache: %v", err)
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := p.Profile(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Socials == nil {
		user.Socials = make(map[string]models.SocialLink)
	}
	user.Socials[p.Name()] = models.SocialLink{
		Connected:    true,
		Username:     profile.Username,
		ProfileURL:   profile.ProfileURL,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Unlink removes a stored social link.
func (s *Service) Unlink(ctx context.Context, providerName string, userID uuid.UUID) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := user.Socials[providerName]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "No linked "+providerName+" account", nil)
	}
	delete(user.Socials, providerName)
	return s.users.SaveUser(ctx, user)
}

// httpClient is shared by all providers. Exchanges are short round
// trips so one timeout fits all of them.
var httpClient = &http.Client{Timeout: 10 * time.Second}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
