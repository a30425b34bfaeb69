// Package api exposes the catalog over a JSON REST surface under /v1.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mabel-dev/tarchia/pkg/engine"
	"github.com/mabel-dev/tarchia/pkg/log"
	"github.com/mabel-dev/tarchia/pkg/metrics"
)

// Server serves the HTTP API
type Server struct {
	engine *engine.Engine
	router chi.Router
	http   *http.Server
}

// NewServer builds the router and middleware stack around an engine
func NewServer(eng *engine.Engine) *Server {
	server := &Server{engine: eng}

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(server.authMiddleware)
	router.Use(server.auditMiddleware)

	router.Route("/v1", func(v1 chi.Router) {
		v1.Post("/owners", server.createOwner)
		v1.Get("/owners/{owner}", server.getOwner)
		v1.Patch("/owners/{owner}/{attribute}", server.updateOwnerAttribute)
		v1.Delete("/owners/{owner}", server.deleteOwner)
		v1.Get("/owners/{owner}/hooks", server.listOwnerHooks)
		v1.Post("/owners/{owner}/hooks", server.createOwnerHook)
		v1.Delete("/owners/{owner}/hooks/{hook}", server.deleteOwnerHook)

		v1.Get("/tables/{owner}", server.listTables)
		v1.Post("/tables/{owner}", server.createTable)
		v1.Get("/tables/{owner}/{table}", server.getTable)
		v1.Delete("/tables/{owner}/{table}", server.deleteTable)
		v1.Patch("/tables/{owner}/{table}/schema", server.updateSchema)
		v1.Patch("/tables/{owner}/{table}/metadata", server.updateMetadata)
		v1.Patch("/tables/{owner}/{table}/{attribute}", server.updateTableAttribute)

		v1.Get("/tables/{owner}/{table}/commits", server.listCommits)
		v1.Get("/tables/{owner}/{table}/commits/{sha}", server.getCommit)
		v1.Post("/tables/{owner}/{table}/commits/{sha}/pull/start", server.startTransaction)
		v1.Post("/pull/stage", server.stageTransaction)
		v1.Post("/pull/truncate", server.truncateTransaction)
		v1.Post("/pull/commit", server.commitTransaction)
		v1.Post("/pull/abort", server.abortTransaction)

		v1.Get("/tables/{owner}/{table}/hooks", server.listTableHooks)
		v1.Post("/tables/{owner}/{table}/hooks", server.createTableHook)
		v1.Delete("/tables/{owner}/{table}/hooks/{hook}", server.deleteTableHook)

		v1.Get("/views/{owner}", server.listViews)
		v1.Post("/views/{owner}", server.createView)
		v1.Get("/views/{owner}/{view}", server.getView)
		v1.Delete("/views/{owner}/{view}", server.deleteView)
	})

	router.Get("/health", metrics.HealthHandler())
	router.Get("/ready", metrics.ReadyHandler())
	router.Method("GET", "/metrics", metrics.Handler())

	server.router = router
	return server
}

// Handler returns the configured router; used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Stop is called
func (s *Server) Start(port int) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	apiLogger := log.WithComponent("api")
	apiLogger.Info().Int("port", port).Msg("api listening")
	metrics.RegisterComponent("api", true, "")
	return s.http.ListenAndServe()
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
