// Package export renders an organization's call records for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// ErrUnknownOrg is returned when the organization slug does not exist.
var ErrUnknownOrg = errors.New("export: unknown organization")

var csvHeader = []string{
	"caller_name", "caller_phone", "started_at", "ended_at",
	"duration_seconds", "summary", "tags", "external_ref",
}

// OrgCalls returns an organization's calls, newest first.
func OrgCalls(db *gorm.DB, orgSlug string) ([]models.Call, error) {
	var org models.Organization
	err := db.Where("slug = ?", orgSlug).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownOrg
	}
	if err != nil {
		return nil, fmt.Errorf("export: lookup org %q: %w", orgSlug, err)
	}

	var calls []models.Call
	if err := db.Where("org_id = ?", org.ID).Order("started_at DESC").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("export: list calls for %q: %w", orgSlug, err)
	}
	return calls, nil
}

// WriteCSV streams the organization's calls as CSV to w.
func WriteCSV(db *gorm.DB, orgSlug string, w io.Writer) error {
	calls, err := OrgCalls(db, orgSlug)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, c := range calls {
		if err := cw.Write(callRecord(c)); err != nil {
			return fmt.Errorf("export: write call %q: %w", c.ExternalRef, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

func callRecord(c models.Call) []string {
	ended := ""
	if c.EndedAt != nil {
		ended = c.EndedAt.UTC().Format(time.RFC3339)
	}
	duration := ""
	if c.DurationSeconds != nil {
		duration = strconv.Itoa(*c.DurationSeconds)
	}
	summary := ""
	if c.Summary != nil {
		summary = *c.Summary
	}
	return []string{
		c.CallerName,
		c.CallerPhone,
		c.StartedAt.UTC().Format(time.RFC3339),
		ended,
		duration,
		summary,
		strings.Join(Tags(c), ", "),
		c.ExternalRef,
	}
}

// Tags decodes the call's JSON tag list. Malformed or empty values come back
// as no tags.
func Tags(c models.Call) []string {
	if c.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(c.Tags), &tags); err != nil {
		return nil
	}
	return tags
}
