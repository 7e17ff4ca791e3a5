// internal/oauth/spotify.go
package oauth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"opslink/internal/config"
)

type Spotify struct {
	cfg config.OAuthProviderConfig
}

func NewSpotify(cfg config.OAuthProviderConfig) *Spotify {
	return &Spotify{cfg: cfg}
}

func (s *Spotify) Name() string { return "spotify" }

func (s *Spotify) AuthorizeURL(state string) string {
	q := url.Values{
		"client_id":     {s.cfg.ClientID},
		"redirect_uri":  {s.cfg.RedirectURL},
		"response_type": {"code"},
		"scope":         {"user-read-private"},
		"state":         {state},
	}
	return "https://accounts.spotify.com/authorize?" + q.Encode()
}

func (s *Spotify) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {s.cfg.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://accounts.spotify.com/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	creds := base64.StdEncoding.EncodeToString([]byte(s.cfg.ClientID + ":" + s.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return &Token{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken}, nil
}

func (s *Spotify) Profile(ctx context.Context, token *Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.spotify.com/v1/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var body struct {
		ID           string `json:"id"`
		DisplayName  string `json:"display_name"`
		ExternalURLs struct {
			Spotify string `json:"spotify"`
		} `json:"external_urls"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	name := body.DisplayName
	if name == "" {
		name = body.ID
	}
	return &Profile{Username: name, ProfileURL: body.ExternalURLs.Spotify}, nil
}
