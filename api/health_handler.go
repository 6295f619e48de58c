package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const readinessTimeout = 3 * time.Second

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	startupTime time.Time
	checks      map[string]Pinger
}

func newHealthHandler(startupTime time.Time, checks map[string]Pinger) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()
	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		startupTime: startupTime,
		checks:      checks,
	}
}

type healthResponse struct {
	Status    string            `json:"status"`
	StartedAt time.Time         `json:"started_at"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, healthResponse{
			Status:    "ok",
			StartedAt: h.startupTime,
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}

// readyz pings every dependency concurrently.
func (h healthHandler) readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		results := make([]error, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
			results = append(results, nil)
		}

		var g errgroup.Group
		for i, name := range names {
			pinger := h.checks[name]
			g.Go(func() error {
				results[i] = pinger.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		response := healthResponse{
			Status:    "ok",
			StartedAt: h.startupTime,
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
			Checks:    make(map[string]string, len(names)),
		}
		for i, name := range names {
			if results[i] != nil {
				h.logger.Warn().Err(results[i]).Str("check", name).Msg("readiness check failed")
				response.Checks[name] = results[i].Error()
				response.Status = "degraded"
				continue
			}
			response.Checks[name] = "ok"
		}

		if response.Status != "ok" {
			h.responder.WriteJSONStatus(w, http.StatusServiceUnavailable, response)
			return
		}
		h.responder.WriteJSON(w, response)
	}
}
