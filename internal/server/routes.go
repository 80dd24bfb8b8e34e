package server

import "github.com/gin-gonic/gin"

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	// Webhook ingest. GET on the same route is a health probe.
	router.POST("/api/livekit/webhook/:projectSlug", handleWebhook(opts))
	router.GET("/api/livekit/webhook/:projectSlug", handleWebhookHealth())

	// Read-only call views.
	router.GET("/api/orgs/:org/calls", handleListCalls(opts))
	router.GET("/api/export/calls", handleExportCalls(opts))

	// Sign-in.
	router.POST("/api/auth/magic", handleMagicLink(opts))
}
