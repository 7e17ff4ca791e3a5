package handlers

import "net/http"

// HandlePostComment attaches a comment to an approved listing.
func (s *Server) HandlePostComment() http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}
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

		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		comment, err := s.Moderation.PostComment(r.Context(), user, id, req.Text)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, comment)
	}
}

// HandleSubmitReview stores or replaces the caller's review.
func (s *Server) HandleSubmitReview() http.HandlerFunc {
	type request struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}
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

		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		review, err := s.Moderation.SubmitReview(r.Context(), user, id, req.Rating, req.Comment)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, review)
	}
}

// HandleListReviews returns every review of a listing.
func (s *Server) HandleListReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		reviews, err := s.Moderation.ListReviews(r.Context(), id)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, reviews)
	}
}
