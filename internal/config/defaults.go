package config

import (
	"os"
	"time"

	"github.com/rickgao/falcon/internal/auth"
	"github.com/rickgao/falcon/internal/connection"
	"github.com/rickgao/falcon/internal/feed"
	"github.com/rickgao/falcon/internal/supervisor"
)

// Default values for optional configuration fields.
const (
	DefaultWSURL              = connection.DefaultURL
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultReconnectDelay     = supervisor.DefaultDelay
	DefaultBackoff            = supervisor.BackoffConstant
	DefaultMaxDelay           = 30 * time.Second
	DefaultFeedURL            = "wss://ws-feed.exchange.coinbase.com"
	DefaultFeedProduct        = "BTC-USD"
	DefaultFeedBufferSize     = feed.DefaultBufferSize
	DefaultFeedReconnectDelay = 1 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
)

func (c *Config) applyDefaults() {
	// Exchange defaults
	if c.Exchange.WSURL == "" {
		c.Exchange.WSURL = DefaultWSURL
	}
	if c.Exchange.HandshakeTimeout == 0 {
		c.Exchange.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Exchange.WriteTimeout == 0 {
		c.Exchange.WriteTimeout = DefaultWriteTimeout
	}

	// Credentials fall back to the environment
	if c.Credentials.APIKey == "" {
		c.Credentials.APIKey = os.Getenv(auth.EnvAPIKey)
	}
	if c.Credentials.Secret == "" {
		c.Credentials.Secret = os.Getenv(auth.EnvSecret)
	}
	if c.Credentials.Passphrase == "" {
		c.Credentials.Passphrase = os.Getenv(auth.EnvPassphrase)
	}

	// Supervisor defaults
	if c.Supervisor.Delay == 0 {
		c.Supervisor.Delay = DefaultReconnectDelay
	}
	if c.Supervisor.Backoff == "" {
		c.Supervisor.Backoff = DefaultBackoff
	}
	if c.Supervisor.MaxDelay == 0 {
		c.Supervisor.MaxDelay = DefaultMaxDelay
	}

	// Feed defaults
	if c.Feed.WSURL == "" {
		c.Feed.WSURL = DefaultFeedURL
	}
	if c.Feed.ProductID == "" {
		c.Feed.ProductID = DefaultFeedProduct
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultFeedReconnectDelay
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// SessionConfig converts the exchange section for connection.NewSession.
func (c *Config) SessionConfig() connection.SessionConfig {
	return connection.SessionConfig{
		URL:              c.Exchange.WSURL,
		HandshakeTimeout: c.Exchange.HandshakeTimeout,
		WriteTimeout:     c.Exchange.WriteTimeout,
	}
}

// AuthCredentials returns the credential triple.
func (c *Config) AuthCredentials() auth.Credentials {
	return auth.Credentials{
		APIKey:     c.Credentials.APIKey,
		Secret:     c.Credentials.Secret,
		Passphrase: c.Credentials.Passphrase,
	}
}

// RestartPolicy returns the exchange session restart policy.
func (c *Config) RestartPolicy() supervisor.RestartPolicy {
	return supervisor.RestartPolicy{
		Delay:       c.Supervisor.Delay,
		MaxAttempts: c.Supervisor.MaxAttempts,
		Backoff:     c.Supervisor.Backoff,
		MaxDelay:    c.Supervisor.MaxDelay,
	}
}

// FeedRestartPolicy returns the unbounded fixed-delay policy for the reference feed.
func (c *Config) FeedRestartPolicy() supervisor.RestartPolicy {
	return supervisor.RestartPolicy{
		Delay:   c.Feed.ReconnectDelay,
		Backoff: supervisor.BackoffConstant,
	}
}

// CoinbaseConfig converts the feed section for feed.NewCoinbaseTicker.
func (c *Config) CoinbaseConfig() feed.CoinbaseConfig {
	return feed.CoinbaseConfig{
		URL:              c.Feed.WSURL,
		ProductID:        c.Feed.ProductID,
		HandshakeTimeout: c.Feed.HandshakeTimeout,
		WriteTimeout:     c.Exchange.WriteTimeout,
	}
}
