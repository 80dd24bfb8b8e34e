package livekit

import (
	"errors"
	"testing"
)

func TestNewVerifier_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		secret string
	}{
		{"missing key", "", "secret"},
		{"missing secret", "APIkey", ""},
		{"missing both", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewVerifier(tt.key, tt.secret); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	v, err := NewVerifier("APIkey", "supersecret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	body := []byte(`{"event":"room_started","room":{"sid":"RM1"}}`)
	token, err := v.Sign(body)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if err := v.Verify(body, token); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	v, _ := NewVerifier("APIkey", "supersecret")
	body := []byte(`{"event":"room_started"}`)
	token, err := v.Sign(body)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other, _ := NewVerifier("APIkey", "wrongsecret")
	wrongKeyToken, _ := other.Sign(body)

	otherIssuer, _ := NewVerifier("APIother", "supersecret")
	wrongIssuerToken, _ := otherIssuer.Sign(body)

	tests := []struct {
		name   string
		body   []byte
		header string
	}{
		{"missing header", body, ""},
		{"garbage token", body, "not-a-jwt"},
		{"wrong secret", body, wrongKeyToken},
		{"wrong issuer", body, wrongIssuerToken},
		{"tampered body", []byte(`{"event":"room_finished"}`), token},
		{"truncated token", body, token[:len(token)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.body, tt.header)
			if !errors.Is(err, ErrAuth) {
				t.Errorf("Verify = %v, want ErrAuth", err)
			}
		})
	}
}
