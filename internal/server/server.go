// Package server exposes Switchboard's HTTP surface: the webhook ingest
// endpoint plus the read-only call list, CSV export, and magic-link routes.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/auth"
	"github.com/zulandar/switchboard/internal/livekit"
	"github.com/zulandar/switchboard/internal/notify"
	"gorm.io/gorm"
)

// StartOpts holds dependencies for the HTTP server. Everything is injected;
// there are no package-level clients.
type StartOpts struct {
	DB       *gorm.DB
	Verifier *livekit.Verifier
	Notifier *notify.Notifier // nil disables chat notifications
	Magic    *auth.Client     // nil disables magic-link sign-in
	Port     int
	Out      io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Verifier == nil {
		return fmt.Errorf("server: webhook verifier is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Switchboard listening on %s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine without binding a listener. Tests drive it
// through httptest.
func NewRouter(opts StartOpts) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router
}
