// Package notify bridges call lifecycle events to chat platforms (Slack,
// Discord). Notifications are best effort: a failed send is logged by the
// caller and never affects webhook processing.
package notify

import "context"

// Adapter is the interface that platform-specific implementations must
// satisfy. Switchboard only posts; it never listens for inbound chat.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Send delivers a message to the platform.
	Send(ctx context.Context, msg Message) error

	// Close shuts down the adapter connection.
	Close() error
}

// Message is an outbound chat message.
type Message struct {
	ChannelID string           // target channel (empty for the adapter default)
	Text      string           // fallback text
	Events    []FormattedEvent // structured attachments
}

// FormattedEvent is a call event formatted for display in chat.
type FormattedEvent struct {
	Title    string  // headline (e.g. "Call opened: RM1")
	Body     string  // detail text
	Severity string  // "info", "success", "warning"
	Color    string  // sidebar color hint (e.g. "#36a64f")
	Fields   []Field // key-value metadata pairs
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}
