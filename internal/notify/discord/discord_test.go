package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchboard/internal/notify"
)

type mockSession struct {
	opened bool
	closed bool
	texts  []string
	embeds []*discordgo.MessageEmbed
}

func (m *mockSession) Open() error  { m.opened = true; return nil }
func (m *mockSession) Close() error { m.closed = true; return nil }
func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.texts = append(m.texts, content)
	return &discordgo.Message{}, nil
}
func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.embeds = append(m.embeds, embed)
	return &discordgo.Message{}, nil
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(AdapterOpts{}); err == nil {
		t.Error("expected error without token or session")
	}
}

func TestSendEmbed(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{Session: mock, ChannelID: "C1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !mock.opened {
		t.Error("Connect should open the session")
	}

	msg := notify.Message{
		Text: "fallback",
		Events: []notify.FormattedEvent{{
			Title:  "Call closed: RM1",
			Body:   "Duration 1m30s",
			Color:  "#36a64f",
			Fields: []notify.Field{{Name: "Duration", Value: "1m30s", Short: true}},
		}},
	}
	if err := a.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(mock.embeds) != 1 {
		t.Fatalf("got %d embeds, want 1", len(mock.embeds))
	}
	embed := mock.embeds[0]
	if embed.Title != "Call closed: RM1" {
		t.Errorf("Title = %q", embed.Title)
	}
	if embed.Color != 0x36a64f {
		t.Errorf("Color = %#x, want 0x36a64f", embed.Color)
	}
	if len(embed.Fields) != 1 || !embed.Fields[0].Inline {
		t.Errorf("Fields = %+v", embed.Fields)
	}
}

func TestSendPlainText(t *testing.T) {
	mock := &mockSession{}
	a, _ := New(AdapterOpts{Session: mock, ChannelID: "C1"})
	a.Connect(context.Background())

	if err := a.Send(context.Background(), notify.Message{Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(mock.texts) != 1 || mock.texts[0] != "hello" {
		t.Errorf("texts = %v", mock.texts)
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Session: &mockSession{}, ChannelID: "C1"})
	if err := a.Send(context.Background(), notify.Message{Text: "hi"}); err == nil {
		t.Error("expected error before Connect")
	}
}

func TestClose(t *testing.T) {
	mock := &mockSession{}
	a, _ := New(AdapterOpts{Session: mock, ChannelID: "C1"})
	a.Connect(context.Background())
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mock.closed {
		t.Error("Close should close the session")
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#36a64f", 0x36a64f},
		{"439fe0", 0x439fe0},
		{"", 0},
		{"#zzz", 0},
	}
	for _, tt := range tests {
		if got := hexColor(tt.in); got != tt.want {
			t.Errorf("hexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
