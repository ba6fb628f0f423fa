// Package server exposes the HTTP surface: authentication endpoints, the
// protected story and user APIs, and the session middleware guarding them.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/storytail/storytail-server/accounts"
	"github.com/storytail/storytail-server/auth"
	"github.com/storytail/storytail-server/internal/config"
	"github.com/storytail/storytail-server/stories"
	"github.com/storytail/storytail-server/token"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "storytail_session"

// SignInPath is where page requests without a valid session are redirected.
const SignInPath = "/signin"

type Server struct {
	env       string
	router    *mux.Router
	config    config.Config
	logger    zerolog.Logger
	auth      *auth.Service
	stories   *stories.Service
	accounts  accounts.Repo
	validator *token.Validator
	cookieMaxAge int
}

func New(cfg config.Config, authService *auth.Service, storyService *stories.Service, accountRepo accounts.Repo, validator *token.Validator, logger zerolog.Logger) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if storyService == nil {
		return nil, errors.New("[server.New] story service is required")
	}
	if accountRepo == nil {
		return nil, errors.New("[server.New] account repo is required")
	}
	if validator == nil {
		return nil, errors.New("[server.New] session validator is required")
	}

	s := &Server{
		env:          cfg.GetEnv(),
		router:       mux.NewRouter(),
		config:       cfg,
		logger:       logger,
		auth:         authService,
		stories:      storyService,
		accounts:     accountRepo,
		validator:    validator,
		cookieMaxAge: int(cfg.GetSessionMaxAge().Seconds()),
	}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
