package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/trippio/trippio-backend/api/responses"
	"github.com/trippio/trippio-backend/pkg/config"
	"github.com/trippio/trippio-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness without touching dependencies.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the datastores the API cannot serve without.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		check := func(name string, p pinger) {
			if p == nil {
				checks[name] = "not configured"
				healthy = false
				return
			}
			if err := p.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, name+" health check failed", err)
				}
				checks[name] = "unreachable"
				healthy = false
				return
			}
			checks[name] = "ok"
		}

		check("database", dbP)
		check("redis", redisP)

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
