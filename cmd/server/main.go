package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/storytail/storytail-server/accounts"
	"github.com/storytail/storytail-server/auth"
	"github.com/storytail/storytail-server/email"
	"github.com/storytail/storytail-server/internal/config"
	"github.com/storytail/storytail-server/internal/database"
	"github.com/storytail/storytail-server/ratelimit"
	"github.com/storytail/storytail-server/server"
	"github.com/storytail/storytail-server/stories"
	"github.com/storytail/storytail-server/stories/localgen"
	"github.com/storytail/storytail-server/token"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	displayAppname(cfg.GetAppName())

	db, err := database.New(cfg.GetDatabaseDSN())
	if err != nil {
		return errors.Wrap(err, "[run] open database")
	}
	if err := db.Migrate(&accounts.Account{}, &token.RevokedToken{}, &stories.Story{}); err != nil {
		return errors.Wrap(err, "[run] migrate")
	}

	issuer := token.NewIssuer(cfg.GetSessionSecret(), token.WithMaxAge(cfg.GetSessionMaxAge()))
	revocation := token.NewGormRevocationStore(db)
	limiter := ratelimit.NewInMemoryLimiter()
	accountRepo := accounts.NewGormRepo(db)
	storyRepo := stories.NewGormRepo(db)
	sender := email.NewSMTPSender(cfg.GetSmtpHost(), cfg.GetSmtpPort(), cfg.GetSmtpAccount(), cfg.GetSmtpPassword(), cfg.GetSmtpFrom())

	authService, err := auth.NewService(auth.Deps{
		Accounts:   accountRepo,
		Limiter:    limiter,
		Issuer:     issuer,
		Revocation: revocation,
		Sender:     sender,
	},
		auth.WithBaseURL(cfg.GetBaseURL()),
		auth.WithLogger(logger),
		auth.WithAttemptPolicy(cfg.GetLoginAttemptLimit(), cfg.GetLoginAttemptWindow()),
		auth.WithTokenTTLs(cfg.GetVerificationTokenTTL(), cfg.GetResetTokenTTL()),
	)
	if err != nil {
		return errors.Wrap(err, "[run] auth service")
	}

	// TODO swap localgen for the real story, image, and speech backends.
	storyService, err := stories.NewService(
		storyRepo,
		localgen.NewGenerator(),
		localgen.NewIllustrator(),
		localgen.NewNarrator(),
		stories.WithLogger(logger),
	)
	if err != nil {
		return errors.Wrap(err, "[run] story service")
	}

	srv, err := server.New(cfg, authService, storyService, accountRepo, token.NewValidator(issuer, revocation), logger)
	if err != nil {
		return errors.Wrap(err, "[run] server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ratelimit.NewSweeper(limiter, 10*time.Minute, cfg.GetRateLimitRetention(), logger).Run(ctx)
	go token.NewSweeper(revocation, time.Hour, logger).Run(ctx)

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(httpServer *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("listen and serve")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[shutdown] server shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
