package handlers

import (
	"net/http"

	"opslink/internal/auth"
	"opslink/internal/models"
)

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the public user record.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// HandleSignup registers a new account and emails a verification link.
func (s *Server) HandleSignup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Auth.Register(r.Context(), req); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusCreated, MessageResponse{Message: "Account created. Check your email to verify it."})
	}
}

// HandleLogin authenticates credentials and issues a bearer token.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		token, user, err := s.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
	}
}

// HandleVerifyEmail consumes the emailed token and redirects to the
// configured success or failure page. Browser-facing, so it redirects
// instead of returning JSON.
func (s *Server) HandleVerifyEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if err := s.Auth.Verify(r.Context(), token); err != nil {
			http.Redirect(w, r, s.Config.Auth.VerifyFailureURL, http.StatusFound)
			return
		}
		http.Redirect(w, r, s.Config.Auth.VerifySuccessURL, http.StatusFound)
	}
}

// HandleResendVerification reissues the verification email.
func (s *Server) HandleResendVerification() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Auth.ResendVerification(r.Context(), req.Email); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Verification email sent"})
	}
}

// HandleForgotPassword starts the password reset flow.
func (s *Server) HandleForgotPassword() http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Password reset email sent"})
	}
}

// HandleResetPassword consumes a reset token and replaces the password.
// Every previously issued session token stops working after this call.
func (s *Server) HandleResetPassword() http.HandlerFunc {
	type request struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		if err := s.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Password updated. Log in with your new password."})
	}
}

// HandleNewPairingCode mints a short-lived code the caller can enter on
// another device to log it in.
func (s *Server) HandleNewPairingCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, appErr := currentUser(r)
		if appErr != nil {
			s.respondError(w, appErr)
			return
		}

		code, err := s.Auth.NewPairingCode(user)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]string{"code": code})
	}
}

// HandleExchangePairingCode trades a pairing code for a bearer token.
func (s *Server) HandleExchangePairingCode() http.HandlerFunc {
	type request struct {
		Code string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if appErr := decodeBody(r, &req); appErr != nil {
			s.respondError(w, appErr)
			return
		}

		token, user, err := s.Auth.ExchangePairingCode(r.Context(), req.Code)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
	}
}
