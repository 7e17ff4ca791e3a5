package handlers

import (
	"net/http"

	"opslink/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Routes assembles the full HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(s.Config.AllowedOrigins)))
	r.Use(s.countRequests)

	authed := s.Authenticator.Middleware
	optional := s.Authenticator.Optional
	moderator := middleware.Require(middleware.CapModerateListings)

	r.Get("/health", s.HandleHealth())

	r.Route("/api", func(r chi.Router) {
		// Credential lifecycle
		r.Post("/signup", s.HandleSignup())
		r.Post("/login", s.HandleLogin())
		r.Get("/verify-email", s.HandleVerifyEmail())
		r.Post("/resend-verification", s.HandleResendVerification())
		r.Post("/forgot-password", s.HandleForgotPassword())
		r.Post("/reset-password", s.HandleResetPassword())

		r.With(authed).Get("/pair/new", s.HandleNewPairingCode())
		r.Post("/pair/exchange", s.HandleExchangePairingCode())

		// Listings
		r.Route("/servers", func(r chi.Router) {
			r.Get("/", s.HandleListListings())
			r.With(authed, middleware.Require(middleware.CapViewAllListings)).
				Get("/all", s.HandleListAllListings())
			r.With(authed).Post("/", s.HandleSubmitListing())

			r.Patch("/{refId}/updateMembers", s.HandleUpdateMembers())

			r.Route("/{id}", func(r chi.Router) {
				r.With(optional).Get("/", s.HandleGetListing())
				r.With(authed).Post("/request-edit", s.HandleRequestEdit())
				r.With(authed, moderator).Post("/edit-approve", s.HandleApproveEdit())
				r.With(authed, moderator).Post("/edit-deny", s.HandleDenyEdit())
				r.With(authed, moderator).Patch("/status", s.HandleSetStatus())
				r.With(authed, middleware.Require(middleware.CapDeleteListings)).
					Delete("/", s.HandleDeleteListing())

				r.With(authed).Post("/report", s.HandleReportListing())
				r.With(authed).Post("/comments", s.HandlePostComment())
				r.Get("/reviews", s.HandleListReviews())
				r.With(authed).Post("/reviews", s.HandleSubmitReview())
			})
		})

		// Accounts and profiles
		r.With(authed).Get("/user", s.HandleCurrentUser())
		r.With(authed).Get("/users/search", s.HandleSearchUsers())
		r.With(optional).Get("/profile/{id}", s.HandleGetProfile())

		// Direct messages
		r.Route("/messages", func(r chi.Router) {
			r.Use(authed)
			r.Get("/", s.HandleListChats())
			r.Post("/start", s.HandleStartChat())
			r.Get("/{id}", s.HandleGetChat())
			r.Post("/{id}", s.HandleSendMessage())
		})

		// Analytics
		r.Get("/analytics/{discordServerId}", s.HandleGetAnalytics())
		r.Post("/analytics", s.HandleIngestSnapshot())

		// Social linking
		r.Route("/oauth/{provider}", func(r chi.Router) {
			r.With(authed).Get("/", s.HandleOAuthBegin())
			r.Get("/callback", s.HandleOAuthCallback())
			r.With(authed).Delete("/", s.HandleOAuthUnlink())
		})
	})

	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()
		next.ServeHTTP(w, r)
	})
}
