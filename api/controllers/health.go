package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/pkg/config"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MintMotion-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks each named dependency with a short deadline.
func HealthReady(cfg *config.Config, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MintMotion-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		statuses := make(map[string]string, len(deps))
		ready := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				statuses[name] = "unavailable"
				ready = false
				continue
			}
			statuses[name] = "ok"
		}

		payload := map[string]any{"status": "ready", "dependencies": statuses}
		if !ready {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
