package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/routing"
)

// Deps is everything the HTTP layer calls into.
type Deps struct {
	Config    config.AppConfig
	Projects  ProjectActions
	Images    ImageActions
	Assets    AssetActions
	Public    PublicReads
	Auth      AuthProvider
	Verifier  TokenVerifier
	Gate      AdminGate
	Validator RequestValidator
	// Checks are pinged by the readiness probe, keyed by name.
	Checks map[string]Pinger
}

func (d Deps) cookies() auth.Cookies {
	return auth.Cookies{Domain: d.Config.CookieDomain(), Secure: d.Config.CookieSecure}
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(deps Deps) Server {
	cfg := deps.Config
	startupTime := time.Now()

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		Handler:      newRouter(deps, startupTime),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return Server{server, startupTime}
}

// newRouter builds the chi tree and puts the host router in front of it, so
// chi only ever sees logical paths.
func newRouter(deps Deps, startupTime time.Time) http.Handler {
	cfg := deps.Config

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(CORSCheckMiddleware(cfg.Server.AcceptedOrigins))
	chiRouter.Use(corsMiddleware(cfg.Server.AcceptedOrigins))

	handlers := initializeHandlers(deps, startupTime)
	admin := newAdminMiddleware(deps.Verifier, deps.Auth, deps.Gate, deps.cookies(), cfg.SiteURL+"/login")

	setupRoutes(chiRouter, handlers, admin)

	hosts := routing.New(cfg.RootDomain, cfg.PreviewSuffixes)
	return hosts.Middleware(chiRouter)
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
