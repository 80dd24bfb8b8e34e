package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zulandar/switchboard/internal/config"
)

func TestNewClient_Disabled(t *testing.T) {
	if c := NewClient(config.AuthConfig{}); c != nil {
		t.Error("client without provider URL should be nil")
	}
}

func TestSendMagicLink(t *testing.T) {
	var gotPath, gotRedirect, gotKey string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRedirect = r.URL.Query().Get("redirect_to")
		gotKey = r.Header.Get("apikey")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.AuthConfig{
		ProviderURL: srv.URL,
		AnonKey:     "anon123",
		SiteURL:     "https://app.example.com",
	})

	if err := c.SendMagicLink(context.Background(), "jo@example.com"); err != nil {
		t.Fatalf("SendMagicLink: %v", err)
	}

	if gotPath != "/auth/v1/otp" {
		t.Errorf("path = %q", gotPath)
	}
	if gotRedirect != "https://app.example.com" {
		t.Errorf("redirect_to = %q", gotRedirect)
	}
	if gotKey != "anon123" {
		t.Errorf("apikey = %q", gotKey)
	}
	if gotBody["email"] != "jo@example.com" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestSendMagicLink_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"email rate limit exceeded"}`))
	}))
	defer srv.Close()

	c := NewClient(config.AuthConfig{ProviderURL: srv.URL})
	err := c.SendMagicLink(context.Background(), "jo@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "email rate limit exceeded") {
		t.Errorf("err = %v, want provider message surfaced", err)
	}
}
