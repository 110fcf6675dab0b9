package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/autoimport-storefront/api/responses"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	"github.com/angelmondragon/autoimport-storefront/pkg/config"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

const readyTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type catalogStater interface {
	State() catalog.State
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready once the cart state backend answers a ping.
// The catalog state is informational; a failed catalog does not make the
// service unready because the cart remains usable.
func HealthReady(cfg *config.Config, logg *logger.Logger, state pinger, catalogs catalogStater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		body := map[string]string{
			"status":      "ready",
			"cart_state":  "ok",
			"cart_driver": cfg.Cart.NormalizedDriver(),
		}
		if catalogs != nil {
			body["catalog"] = string(catalogs.State())
		}

		status := http.StatusOK
		if state != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := state.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "health.cart_state_unreachable", err)
				}
				body["status"] = "unavailable"
				body["cart_state"] = "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		responses.WriteSuccessStatus(w, status, body)
	}
}
