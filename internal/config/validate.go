package config

import (
	"errors"
	"fmt"

	"github.com/rickgao/falcon/internal/auth"
)

// ErrMissingCredential is returned by Validate when a credential is empty.
// It is fatal at startup.
var ErrMissingCredential = auth.ErrMissingCredential

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Exchange.WSURL == "" {
		return errors.New("exchange.ws_url is required")
	}
	if c.Exchange.HandshakeTimeout < 0 {
		return errors.New("exchange.handshake_timeout must be >= 0")
	}
	if c.Exchange.WriteTimeout < 0 {
		return errors.New("exchange.write_timeout must be >= 0")
	}

	if c.Credentials.APIKey == "" {
		return fmt.Errorf("%w: credentials.api_key is required", ErrMissingCredential)
	}
	if c.Credentials.Secret == "" {
		return fmt.Errorf("%w: credentials.secret is required", ErrMissingCredential)
	}
	if c.Credentials.Passphrase == "" {
		return fmt.Errorf("%w: credentials.passphrase is required", ErrMissingCredential)
	}

	if err := c.RestartPolicy().Validate(); err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	if c.Feed.IsEnabled() {
		if c.Feed.WSURL == "" {
			return errors.New("feed.ws_url is required")
		}
		if c.Feed.ProductID == "" {
			return errors.New("feed.product_id is required")
		}
		if c.Feed.BufferSize < 1 {
			return errors.New("feed.buffer_size must be >= 1")
		}
		if c.Feed.HandshakeTimeout < 0 {
			return errors.New("feed.handshake_timeout must be >= 0")
		}
		if c.Feed.ReconnectDelay < 0 {
			return fmt.Errorf("feed.reconnect_delay must be >= 0, got %v", c.Feed.ReconnectDelay)
		}
		if err := c.FeedRestartPolicy().Validate(); err != nil {
			return fmt.Errorf("feed: %w", err)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}
