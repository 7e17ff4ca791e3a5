// internal/oauth/github.go
package oauth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"opslink/internal/config"
)

type GitHub struct {
	cfg config.OAuthProviderConfig
}

func NewGitHub(cfg config.OAuthProviderConfig) *GitHub {
	return &GitHub{cfg: cfg}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthorizeURL(state string) string {
	q := url.Values{
		"client_id":    {g.cfg.ClientID},
		"redirect_uri": {g.cfg.RedirectURL},
		"scope":        {"read:user"},
		"state":        {state},
	}
	return "https://github.com/login/oauth/authorize?" + q.Encode()
}

func (g *GitHub) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{
		"client_id":     {g.cfg.ClientID},
		"client_secret": {g.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {g.cfg.RedirectURL},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://github.com/login/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return &Token{AccessToken: body.AccessToken}, nil
}

func (g *GitHub) Profile(ctx context.Context, token *Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.github.com/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var body struct {
		Login   string `json:"login"`
		HTMLURL string `json:"html_url"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return &Profile{Username: body.Login, ProfileURL: body.HTMLURL}, nil
}
