package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// DailyReport holds call metrics for a 24-hour period.
type DailyReport struct {
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Opened       int
	Closed       int
	TotalSeconds int
	OrgBreakdown []OrgDigest
}

// OrgDigest holds per-organization metrics for a digest report.
type OrgDigest struct {
	Org    string
	Opened int
	Closed int
}

// BuildDailyDigest queries calls opened or closed over the last 24 hours.
// Returns nil when there was no activity, so quiet days post nothing.
func BuildDailyDigest(db *gorm.DB, now time.Time) (*DailyReport, error) {
	since := now.Add(-24 * time.Hour)
	report := &DailyReport{PeriodStart: since, PeriodEnd: now}

	var orgs []models.Organization
	if err := db.Order("slug").Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("notify: digest orgs: %w", err)
	}

	for _, org := range orgs {
		var opened, closed int64
		if err := db.Model(&models.Call{}).
			Where("org_id = ? AND started_at >= ? AND started_at < ?", org.ID, since, now).
			Count(&opened).Error; err != nil {
			return nil, fmt.Errorf("notify: digest opened count: %w", err)
		}
		if err := db.Model(&models.Call{}).
			Where("org_id = ? AND ended_at >= ? AND ended_at < ?", org.ID, since, now).
			Count(&closed).Error; err != nil {
			return nil, fmt.Errorf("notify: digest closed count: %w", err)
		}
		if opened == 0 && closed == 0 {
			continue
		}

		var totalSecs int64
		row := db.Model(&models.Call{}).
			Where("org_id = ? AND ended_at >= ? AND ended_at < ?", org.ID, since, now).
			Select("COALESCE(SUM(duration_seconds), 0)").Row()
		if err := row.Scan(&totalSecs); err != nil {
			return nil, fmt.Errorf("notify: digest duration sum: %w", err)
		}

		report.Opened += int(opened)
		report.Closed += int(closed)
		report.TotalSeconds += int(totalSecs)
		report.OrgBreakdown = append(report.OrgBreakdown, OrgDigest{
			Org:    orgLabel(org),
			Opened: int(opened),
			Closed: int(closed),
		})
	}

	if report.Opened == 0 && report.Closed == 0 {
		return nil, nil
	}
	return report, nil
}

// FormatDaily renders a DailyReport as a chat message.
func FormatDaily(report *DailyReport) Message {
	var lines []string
	for _, od := range report.OrgBreakdown {
		lines = append(lines, fmt.Sprintf("%s: %d opened, %d closed", od.Org, od.Opened, od.Closed))
	}

	total := time.Duration(report.TotalSeconds) * time.Second
	evt := FormattedEvent{
		Title: fmt.Sprintf("Daily call digest — %s", report.PeriodEnd.UTC().Format("2006-01-02")),
		Body:  strings.Join(lines, "\n"),
		Color: colorInfo,
		Fields: []Field{
			{Name: "Opened", Value: fmt.Sprintf("%d", report.Opened), Short: true},
			{Name: "Closed", Value: fmt.Sprintf("%d", report.Closed), Short: true},
			{Name: "Talk time", Value: total.String(), Short: true},
		},
	}
	return Message{
		Text:   fmt.Sprintf("Daily call digest: %d opened, %d closed", report.Opened, report.Closed),
		Events: []FormattedEvent{evt},
	}
}
