// Package livekit verifies inbound webhook deliveries from the LiveKit
// server.
package livekit

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuth is returned for any delivery whose signature cannot be verified:
// missing token, malformed token, wrong key, or a body digest mismatch.
var ErrAuth = errors.New("livekit: invalid webhook signature")

// Verifier checks webhook authenticity against a configured API key pair.
// The sending server puts an HS256 JWT in the authorization header whose
// issuer is the API key and whose sha256 claim is the digest of the body.
type Verifier struct {
	apiKey    string
	apiSecret string
}

// NewVerifier creates a Verifier. Both credentials are required; a missing
// pair is operator misconfiguration, not an authentication failure.
func NewVerifier(apiKey, apiSecret string) (*Verifier, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("livekit: api key and secret are required")
	}
	return &Verifier{apiKey: apiKey, apiSecret: apiSecret}, nil
}

type webhookClaims struct {
	jwt.RegisteredClaims
	SHA256 string `json:"sha256"`
}

// Verify checks authHeader against rawBody. rawBody must be the bytes
// exactly as received: the digest is computed over what the sender signed,
// so any parse/re-serialize step before this call breaks verification.
func (v *Verifier) Verify(rawBody []byte, authHeader string) error {
	if authHeader == "" {
		return ErrAuth
	}

	claims := &webhookClaims{}
	token, err := jwt.ParseWithClaims(authHeader, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.apiSecret), nil
	})
	if err != nil || !token.Valid {
		return ErrAuth
	}
	if claims.Issuer != v.apiKey {
		return ErrAuth
	}

	sum := sha256.Sum256(rawBody)
	if claims.SHA256 != base64.StdEncoding.EncodeToString(sum[:]) {
		return ErrAuth
	}
	return nil
}

// Sign produces an authorization token for rawBody that Verify accepts.
// Used by tests and local tooling to emit deliveries.
func (v *Verifier) Sign(rawBody []byte) (string, error) {
	sum := sha256.Sum256(rawBody)
	now := time.Now()
	claims := &webhookClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.apiKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		SHA256: base64.StdEncoding.EncodeToString(sum[:]),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(v.apiSecret))
	if err != nil {
		return "", fmt.Errorf("livekit: sign: %w", err)
	}
	return signed, nil
}
