package handlers

import (
	"net/http"

	"opslink/internal/middleware"
	"opslink/internal/models"
	"opslink/internal/moderation"
	"opslink/internal/utils"
)

// ListingWithComments is the GET-one response shape.
type ListingWithComments struct {
	*models.Listing
	Comments []*models.Comment `json:"comments"`
}

// HandleListListings returns the public directory: approved listings
// only, newest first.
func (s *Server) HandleListListings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := s.Moderation.ListListings(r.Context(), models.StatusApproved)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, listings)
	}
}

// HandleListAllListings returns listings in every status, optionally
// filtered by ?status=. Moderator view.
func (s *Server) HandleListAllListings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := s.Moderation.ListListings(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, listings)
	}
}

// HandleGetListing returns one listing with its comments. Listings that
// are not approved are visible only to the submitter and moderators;
// everyone else gets the same 404 as a nonexistent id.
func (s *Server) HandleGetListing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		listing, comments, err := s.Moderation.GetListing(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}

		if listing.Status != models.StatusApproved {
			user, _ := middleware.GetUserFromContext(r.Context())
			isOwner := user != nil && user.ID == listing.Submitter
			if !isOwner && !middleware.Can(user, middleware.CapViewAllListings) {
				s.respondError(w, utils.NewListingNotFoundError(id.String()))
				return
			}
		}

		s.respondJSON(w, http.StatusOK, ListingWithComments{Listing: listing, Comments: comments})
	}
}

// HandleSubmitListing creates a new pending listing.
func (s *Server) HandleSubmitListing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req moderation.SubmitRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		listing, err := s.Moderation.Submit(r.Context(), user, req)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, listing)
	}
}

// HandleRequestEdit queues an edit request against the caller's own
// listing. Fields outside the editable set are dropped on decode.
func (s *Server) HandleRequestEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var changes models.EditChanges
		if appErr := decodeBody(r, &changes); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		editRequest, err := s.Moderation.RequestEdit(r.Context(), user, id, changes)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, editRequest)
	}
}
