package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchboard/internal/export"
	"github.com/zulandar/switchboard/internal/models"
)

// callView is the JSON shape for one call row.
type callView struct {
	ExternalRef     string     `json:"external_ref"`
	CallerName      string     `json:"caller_name,omitempty"`
	CallerPhone     string     `json:"caller_phone,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	Tags            []string   `json:"tags"`
}

// handleListCalls returns an organization's calls as JSON, newest first.
func handleListCalls(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgSlug := c.Param("org")

		calls, err := export.OrgCalls(opts.DB, orgSlug)
		if errors.Is(err, export.ErrUnknownOrg) {
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}
		if err != nil {
			log.Printf("server: list calls for %q: %v", orgSlug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store error"})
			return
		}

		views := make([]callView, 0, len(calls))
		for _, call := range calls {
			views = append(views, toCallView(call))
		}
		c.JSON(http.StatusOK, gin.H{"calls": views})
	}
}

// handleExportCalls streams an organization's calls as a CSV download.
func handleExportCalls(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgSlug := c.Query("org")
		if orgSlug == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "org query parameter is required"})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="calls-`+orgSlug+`.csv"`)

		err := export.WriteCSV(opts.DB, orgSlug, c.Writer)
		if errors.Is(err, export.ErrUnknownOrg) {
			// Nothing has been streamed yet for an unknown org.
			c.Header("Content-Type", "application/json")
			c.Header("Content-Disposition", "")
			c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
			return
		}
		if err != nil {
			log.Printf("server: export calls for %q: %v", orgSlug, err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	}
}

func toCallView(call models.Call) callView {
	summary := ""
	if call.Summary != nil {
		summary = *call.Summary
	}
	tags := export.Tags(call)
	if tags == nil {
		tags = []string{}
	}
	return callView{
		ExternalRef:     call.ExternalRef,
		CallerName:      call.CallerName,
		CallerPhone:     call.CallerPhone,
		StartedAt:       call.StartedAt,
		EndedAt:         call.EndedAt,
		DurationSeconds: call.DurationSeconds,
		Summary:         summary,
		Tags:            tags,
	}
}
