// Package auth provides Polymarket CLOB WebSocket authentication using HMAC-SHA256 signatures.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// SignedAction is the request description appended to the timestamp before signing.
const SignedAction = "GET/users/self"

// Environment variables holding the session credentials.
const (
	EnvAPIKey     = "POLY_API_KEY"
	EnvSecret     = "POLY_SECRET"
	EnvPassphrase = "POLY_PASSPHRASE"
)

// ErrMissingCredential is returned when a credential is empty at startup.
var ErrMissingCredential = errors.New("missing credential")

// Credentials holds the API key triple used by the login handshake.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// LoadCredentialsFromEnv reads the credential triple from the environment.
func LoadCredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		APIKey:     os.Getenv(EnvAPIKey),
		Secret:     os.Getenv(EnvSecret),
		Passphrase: os.Getenv(EnvPassphrase),
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Validate reports the first empty credential.
func (c Credentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvAPIKey)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvSecret)
	}
	if c.Passphrase == "" {
		return fmt.Errorf("%w: %s is not set", ErrMissingCredential, EnvPassphrase)
	}
	return nil
}

// LogValue keeps secrets out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("secret_set", c.Secret != ""),
		slog.Bool("passphrase_set", c.Passphrase != ""),
	)
}

// LoginRequest is the first frame sent on every connection.
type LoginRequest struct {
	Type       string `json:"type"`
	Key        string `json:"key"`
	Signature  string `json:"signature"`
	Timestamp  int64  `json:"timestamp"`
	Passphrase string `json:"passphrase"`
}

// NewLoginRequest signs a login request for the given instant.
// The server rejects stale timestamps, so build one per connection attempt.
func NewLoginRequest(c Credentials, now time.Time) LoginRequest {
	timestampMs := now.UnixMilli()
	return LoginRequest{
		Type:       "login",
		Key:        c.APIKey,
		Signature:  Sign(timestampMs, c.Secret),
		Timestamp:  timestampMs,
		Passphrase: c.Passphrase,
	}
}

// Sign computes hex(HMAC-SHA256(secret, timestamp_ms + SignedAction)).
func Sign(timestampMs int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestampMs, 10)))
	mac.Write([]byte(SignedAction))
	return hex.EncodeToString(mac.Sum(nil))
}
