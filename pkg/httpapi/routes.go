// Package httpapi exposes the store selectors read-only over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
)

func SetupRoutes(s *store.Store, c *notify.Center) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", GetState(s))
		r.Get("/stats", GetStats(s))
		r.Get("/turns/active", GetActiveTurn(s))
		r.Get("/turns/{id}", GetTurn(s))
		r.Get("/notifications", GetNotifications(s, c))
	})
	return r
}
