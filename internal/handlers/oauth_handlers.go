package handlers

import (
	"net/http"

	"opslink/internal/utils"

	"github.com/go-chi/chi/v5"
)

// HandleOAuthBegin redirects the caller to the provider's consent
// screen with a single-use state nonce.
func (s *Server) HandleOAuthBegin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		authorizeURL, err := s.OAuth.Begin(chi.URLParam(r, "provider"), user.ID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// HandleOAuthCallback completes the link: validates state, exchanges
// the code and stores the connection on the account.
func (s *Server) HandleOAuthCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")
		if state == "" || code == "" {
			s.respondError(w, utils.NewValidationError("state and code are required"))
			return
		}

		provider := chi.URLParam(r, "provider")
		user, err := s.OAuth.Complete(r.Context(), provider, state, code)
		if err != nil {
			s.respondError(w, err)
			return
		}

		s.respondJSON(w, http.StatusOK, map[string]any{
			"message": provider + " account linked",
			"social":  user.Socials[provider].Username,
		})
	}
}

// HandleOAuthUnlink disconnects a linked platform.
func (s *Server) HandleOAuthUnlink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		provider := chi.URLParam(r, "provider")
		if err := s.OAuth.Unlink(r.Context(), provider, user.ID); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: provider + " account unlinked"})
	}
}
