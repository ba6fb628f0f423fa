package server

import (
	"net/http"
)

// initRoutes mounts the public auth endpoints and the protected subrouters.
// The session middleware is attached only to the protected subtrees, so every
// other path (marketing pages, the sign-in page, the auth endpoints
// themselves) bypasses it entirely.
func (s *Server) initRoutes() {
	s.router.Use(s.RecoverMiddleware, s.LoggingMiddleware, s.ThroughputMiddleware(s.config.GetServerRequestsPerSecond()))

	// Public auth surface
	s.router.HandleFunc("/api/auth/register", s.RegisterHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/login", s.LoginHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/logout", s.LogoutHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/session", s.SessionHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/auth/verify-email", s.VerifyEmailHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/auth/verify-email/resend", s.ResendVerificationHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/password-reset/request", s.PasswordResetRequestHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth/password-reset/complete", s.PasswordResetCompleteHandler).Methods(http.MethodPost)

	// Public pages
	s.router.HandleFunc(SignInPath, s.pageHandler("Sign in to Storytail")).Methods(http.MethodGet)
	s.router.HandleFunc("/verify-success", s.pageHandler("Email verified - welcome to Storytail!")).Methods(http.MethodGet)
	s.router.HandleFunc("/verify-error", s.pageHandler("That verification link didn't work.")).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.pageHandler("Storytail - bedtime stories, freshly told")).Methods(http.MethodGet)

	// Protected story API
	storyAPI := s.router.PathPrefix("/api/stories").Subrouter()
	storyAPI.Use(s.RequireSession)
	storyAPI.HandleFunc("", s.GenerateStoryHandler).Methods(http.MethodPost)
	storyAPI.HandleFunc("", s.ListStoriesHandler).Methods(http.MethodGet)
	storyAPI.HandleFunc("/{id}", s.GetStoryHandler).Methods(http.MethodGet)
	storyAPI.HandleFunc("/{id}", s.UpdateStoryHandler).Methods(http.MethodPut)
	storyAPI.HandleFunc("/{id}", s.DeleteStoryHandler).Methods(http.MethodDelete)
	storyAPI.HandleFunc("/{id}/extend", s.ExtendStoryHandler).Methods(http.MethodPost)
	storyAPI.HandleFunc("/{id}/illustrate", s.IllustrateStoryHandler).Methods(http.MethodPost)

	// Protected narration API
	audioAPI := s.router.PathPrefix("/api/audio").Subrouter()
	audioAPI.Use(s.RequireSession)
	audioAPI.HandleFunc("/{id}", s.NarrateStoryHandler).Methods(http.MethodPost)

	// Protected user API
	userAPI := s.router.PathPrefix("/api/user").Subrouter()
	userAPI.Use(s.RequireSession)
	userAPI.HandleFunc("/me", s.MeHandler).Methods(http.MethodGet)

	// Protected pages: anonymous visitors are redirected to the sign-in page
	storyPages := s.router.PathPrefix("/stories").Subrouter()
	storyPages.Use(s.RequireSession)
	storyPages.HandleFunc("", s.pageHandler("Your stories")).Methods(http.MethodGet)
	storyPages.HandleFunc("/{id}", s.pageHandler("Story")).Methods(http.MethodGet)
}

// pageHandler is a stand-in for the UI, which is rendered by a separate
// frontend. It exists so page-path middleware semantics stay testable.
func (s *Server) pageHandler(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><title>" + title + "</title><h1>" + title + "</h1>"))
	}
}
