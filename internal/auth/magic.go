// Package auth issues magic-link sign-in requests through the configured
// identity provider.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zulandar/switchboard/internal/config"
)

// Client talks to the identity provider's OTP endpoint. One outbound call
// per sign-in request, no retries.
type Client struct {
	providerURL string
	anonKey     string
	siteURL     string
	httpClient  *http.Client
}

// NewClient creates a Client from config. Returns nil when no provider is
// configured so callers can treat magic-link sign-in as disabled.
func NewClient(cfg config.AuthConfig) *Client {
	if cfg.ProviderURL == "" {
		return nil
	}
	return &Client{
		providerURL: strings.TrimRight(cfg.ProviderURL, "/"),
		anonKey:     cfg.AnonKey,
		siteURL:     cfg.SiteURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type providerError struct {
	Message        string `json:"message"`
	ErrDescription string `json:"error_description"`
}

// SendMagicLink asks the provider to email a one-time sign-in link. The
// provider redirects the finished sign-in to the configured site URL.
func (c *Client) SendMagicLink(ctx context.Context, email string) error {
	endpoint := c.providerURL + "/auth/v1/otp"
	if c.siteURL != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(c.siteURL)
	}

	payload, err := json.Marshal(otpRequest{Email: email, CreateUser: true})
	if err != nil {
		return fmt.Errorf("auth: encode otp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("auth: build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth: send otp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var pe providerError
	msg := ""
	if json.Unmarshal(body, &pe) == nil {
		if pe.Message != "" {
			msg = pe.Message
		} else {
			msg = pe.ErrDescription
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("auth: provider rejected otp request: %s", msg)
}
