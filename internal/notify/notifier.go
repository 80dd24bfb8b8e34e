package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/switchboard/internal/models"
)

// Sidebar colors per severity.
const (
	colorSuccess = "#36a64f"
	colorInfo    = "#439fe0"
)

// Notifier posts call lifecycle announcements through an Adapter.
type Notifier struct {
	adapter Adapter
	channel string
}

// NewNotifier creates a Notifier posting to channel.
func NewNotifier(adapter Adapter, channel string) *Notifier {
	return &Notifier{adapter: adapter, channel: channel}
}

// CallOpened announces a newly opened call.
func (n *Notifier) CallOpened(ctx context.Context, org models.Organization, call models.Call) error {
	evt := FormattedEvent{
		Title:    fmt.Sprintf("Call opened: %s", call.ExternalRef),
		Body:     fmt.Sprintf("Started at %s", call.StartedAt.UTC().Format(time.RFC3339)),
		Severity: "info",
		Color:    colorInfo,
		Fields: []Field{
			{Name: "Organization", Value: orgLabel(org), Short: true},
			{Name: "Ref", Value: call.ExternalRef, Short: true},
		},
	}
	return n.send(ctx, fmt.Sprintf("Call %s opened", call.ExternalRef), evt)
}

// CallClosed announces a closed call with its duration.
func (n *Notifier) CallClosed(ctx context.Context, org models.Organization, call models.Call) error {
	duration := "unknown"
	if call.DurationSeconds != nil {
		duration = (time.Duration(*call.DurationSeconds) * time.Second).String()
	}
	evt := FormattedEvent{
		Title:    fmt.Sprintf("Call closed: %s", call.ExternalRef),
		Body:     fmt.Sprintf("Duration %s", duration),
		Severity: "success",
		Color:    colorSuccess,
		Fields: []Field{
			{Name: "Organization", Value: orgLabel(org), Short: true},
			{Name: "Duration", Value: duration, Short: true},
		},
	}
	return n.send(ctx, fmt.Sprintf("Call %s closed", call.ExternalRef), evt)
}

func (n *Notifier) send(ctx context.Context, text string, evt FormattedEvent) error {
	msg := Message{
		ChannelID: n.channel,
		Text:      text,
		Events:    []FormattedEvent{evt},
	}
	if err := n.adapter.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %q: %w", evt.Title, err)
	}
	return nil
}

func orgLabel(org models.Organization) string {
	if org.Name != "" {
		return org.Name
	}
	return org.Slug
}
