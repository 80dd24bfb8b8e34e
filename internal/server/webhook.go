package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/event"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/reconcile"
)

// handleWebhook runs one delivery through verify -> normalize -> resolve ->
// [audit, reconcile]. Store failures past the project gate are logged and
// the delivery is still acknowledged, so the sender's at-least-once retry
// loop cannot amplify a store outage.
func handleWebhook(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("projectSlug")

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "read body")
			return
		}

		if err := opts.Verifier.Verify(raw, c.GetHeader("Authorization")); err != nil {
			log.Printf("server: webhook verify failed for %q: %v", slug, err)
			c.String(http.StatusUnauthorized, "invalid signature")
			return
		}

		env, err := event.ParseEnvelope(raw)
		if err != nil {
			// The sender signs exactly what it serializes, so a verified
			// body that fails to decode is treated as tampering too.
			log.Printf("server: webhook decode failed for %q: %v", slug, err)
			c.String(http.StatusUnauthorized, "invalid signature")
			return
		}

		receivedAt := time.Now().UTC()
		ne := event.Normalize(env, receivedAt)
		rec := reconcile.New(opts.DB)

		proj := rec.ResolveProject(slug)
		if proj == nil {
			// Unknown and inactive slugs answer identically, so a sender
			// cannot probe which project slugs exist.
			c.JSON(http.StatusNoContent, gin.H{"ok": true})
			return
		}

		if err := rec.AppendAudit(proj.OrgID, ne.Kind, raw); err != nil {
			log.Printf("server: %v", err)
		}
		if err := rec.Apply(proj.OrgID, ne, receivedAt); err != nil {
			log.Printf("server: %v", err)
		}

		announce(c.Request.Context(), opts, proj.OrgID, ne, receivedAt)

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// handleWebhookHealth answers the sender's reachability probe. No side
// effects.
func handleWebhookHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// announce posts a best-effort chat notification for lifecycle events.
func announce(ctx context.Context, opts StartOpts, orgID uint, ne event.NormalizedEvent, receivedAt time.Time) {
	if opts.Notifier == nil {
		return
	}
	if ne.Kind != reconcile.KindRoomStarted && ne.Kind != reconcile.KindRoomFinished {
		return
	}

	var org models.Organization
	if err := opts.DB.First(&org, orgID).Error; err != nil {
		log.Printf("server: notify org lookup %d: %v", orgID, err)
		return
	}

	ref := reconcile.ExternalRef(ne, receivedAt)
	var call models.Call
	if err := opts.DB.Where("org_id = ? AND external_ref = ?", orgID, ref).First(&call).Error; err != nil {
		// Nothing to announce: the finish had no matching row, or the store
		// write failed.
		return
	}

	var err error
	if ne.Kind == reconcile.KindRoomStarted {
		err = opts.Notifier.CallOpened(ctx, org, call)
	} else {
		err = opts.Notifier.CallClosed(ctx, org, call)
	}
	if err != nil {
		log.Printf("server: %v", err)
	}
}
