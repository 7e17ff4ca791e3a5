// internal/oauth/twitch.go
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"opslink/internal/config"
)

type Twitch struct {
	cfg config.OAuthProviderConfig
}

func NewTwitch(cfg config.OAuthProviderConfig) *Twitch {
	return &Twitch{cfg: cfg}
}

func (t *Twitch) Name() string { return "twitch" }

func (t *Twitch) AuthorizeURL(state string) string {
	q := url.Values{
		"client_id":     {t.cfg.ClientID},
		"redirect_uri":  {t.cfg.RedirectURL},
		"response_type": {"code"},
		"scope":         {"user:read:email"},
		"state":         {state},
	}
	return "https://id.twitch.tv/oauth2/authorize?" + q.Encode()
}

func (t *Twitch) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"client_id":     {t.cfg.ClientID},
		"client_secret": {t.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {t.cfg.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://id.twitch.tv/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
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

func (t *Twitch) Profile(ctx context.Context, token *Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitch.tv/helix/users", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Client-Id", t.cfg.ClientID)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var body struct {
		Data []struct {
			Login string `json:"login"`
		} `json:"data"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("twitch returned no user for token")
	}
	login := body.Data[0].Login
	return &Profile{Username: login, ProfileURL: "https://twitch.tv/" + login}, nil
}
