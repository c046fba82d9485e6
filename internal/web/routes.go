package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/web/handlers"
)

func (s *Server) setupRoutes(identities database.IdentityStore, events database.EventStore, provider handlers.StatusProvider) {
	eventsHandler := handlers.NewEventsHandler(events)
	identitiesHandler := handlers.NewIdentitiesHandler(identities)
	statsHandler := handlers.NewStatsHandler(events, provider)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", eventsHandler.List)
		r.Get("/identities", identitiesHandler.List)
		r.Get("/stats", statsHandler.Get)
	})
}
