package handlers

import (
	"net/http"
	"strings"

	"opslink/internal/middleware"
	"opslink/internal/models"
)

const userSearchLimit = 10

// HandleCurrentUser returns the authenticated account.
func (s *Server) HandleCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}
		s.respondJSON(w, http.StatusOK, user)
	}
}

// UserSearchResult is a search hit, trimmed to what the picker needs.
type UserSearchResult struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// HandleSearchUsers searches accounts by Discord username,
// case-insensitive substring match.
func (s *Server) HandleSearchUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			s.respondJSON(w, http.StatusOK, []UserSearchResult{})
			return
		}

		users, err := s.DB.SearchUsersByDiscordUsername(r.Context(), q, userSearchLimit)
		if err != nil {
			s.respondError(w, err)
			return
		}

		results := make([]UserSearchResult, 0, len(users))
		for _, u := range users {
			results = append(results, UserSearchResult{Username: u.DiscordUsername, Role: u.Role})
		}
		s.respondJSON(w, http.StatusOK, results)
	}
}

// ProfileResponse is the public profile shape. Email and the Discord
// user id are private fields, present only for the owner and admins.
type ProfileResponse struct {
	ID              string `json:"id"`
	DiscordUsername string `json:"discordUsername"`
	DiscordTag      string `json:"discordTag"`
	Role            string `json:"role"`
	IsVerified      bool   `json:"isVerified"`

	Email         string `json:"email,omitempty"`
	DiscordUserID string `json:"discordUserID,omitempty"`

	Socials []ProfileSocial `json:"socials"`
}

// ProfileSocial is one connected platform on a profile.
type ProfileSocial struct {
	Platform   string `json:"platform"`
	Connected  bool   `json:"connected"`
	Username   string `json:"username"`
	ProfileURL string `json:"profileUrl"`
}

// HandleGetProfile serves a user profile. Public route; requesters with
// a valid token see their own private fields, admins see everyone's.
func (s *Server) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		user, err := s.DB.GetUser(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}

		requester, _ := middleware.GetUserFromContext(r.Context())
		isSelf := requester != nil && requester.ID == user.ID
		isAdmin := requester != nil && requester.IsModerator()

		resp := ProfileResponse{
			ID:              user.ID.String(),
			DiscordUsername: user.DiscordUsername,
			DiscordTag:      user.DiscordTag,
			Role:            user.Role,
			IsVerified:      user.IsVerified,
			Socials:         publicSocials(user),
		}
		if isSelf || isAdmin {
			resp.Email = user.Email
			resp.DiscordUserID = user.DiscordUserID
		}

		s.respondJSON(w, http.StatusOK, resp)
	}
}

func publicSocials(user *models.User) []ProfileSocial {
	socials := make([]ProfileSocial, 0, len(user.Socials))
	for platform, link := range user.Socials {
		if !link.Connected {
			continue
		}
		socials = append(socials, ProfileSocial{
			Platform:   platform,
			Connected:  true,
			Username:   link.Username,
			ProfileURL: link.ProfileURL,
		})
	}
	return socials
}
