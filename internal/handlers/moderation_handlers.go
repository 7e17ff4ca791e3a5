package handlers

import (
	"net/http"

	"opslink/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SetStatusRequest is the moderator status transition body.
type SetStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HandleSetStatus moves a listing between moderation statuses.
func (s *Server) HandleSetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req SetStatusRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		listing, err := s.Moderation.SetStatus(r.Context(), id, req.Status, req.Reason)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, listing)
	}
}

// ResolveEditRequest names the edit request a moderator is resolving.
type ResolveEditRequest struct {
	EditRequestID uuid.UUID `json:"editRequestId"`
	Reason        string    `json:"reason,omitempty"`
}

// HandleApproveEdit merges an edit request into its listing.
func (s *Server) HandleApproveEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req ResolveEditRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}
		if req.EditRequestID == uuid.Nil {
			s.respondError(w, utils.NewValidationError("editRequestId is required"))
			return
		}

		listing, err := s.Moderation.ApproveEdit(r.Context(), id, req.EditRequestID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, listing)
	}
}

// HandleDenyEdit discards an edit request, leaving the listing as is.
func (s *Server) HandleDenyEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		var req ResolveEditRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}
		if req.EditRequestID == uuid.Nil {
			s.respondError(w, utils.NewValidationError("editRequestId is required"))
			return
		}

		listing, err := s.Moderation.DenyEdit(r.Context(), id, req.EditRequestID, req.Reason)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, listing)
	}
}

// HandleReportListing files a report against a listing.
func (s *Server) HandleReportListing() http.HandlerFunc {
	type request struct {
		Reason string `json:"reason"`
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

		if err := s.Moderation.Report(r.Context(), user, id, req.Reason); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, MessageResponse{Message: "Report filed"})
	}
}

// HandleDeleteListing permanently removes a listing and its comments.
func (s *Server) HandleDeleteListing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, appErr := parseIDParam(r, "id")
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Moderation.Delete(r.Context(), id); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Listing deleted"})
	}
}

// HandleUpdateMembers overwrites the member count for the listing with
// the given Discord server id. Called by the stats bot.
func (s *Server) HandleUpdateMembers() http.HandlerFunc {
	type request struct {
		Members int `json:"members"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		discordServerID := chi.URLParam(r, "refId")

		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Moderation.UpdateMembers(r.Context(), discordServerID, req.Members); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Member count updated"})
	}
}
