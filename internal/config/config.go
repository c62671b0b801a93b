package config

import "time"

// Config is the root configuration for the falcon client.
type Config struct {
	Exchange    ExchangeConfig    `yaml:"exchange"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Supervisor  SupervisorConfig  `yaml:"supervisor"`
	Feed        FeedConfig        `yaml:"feed"`
	Log         LogConfig         `yaml:"log"`
}

// ExchangeConfig holds the exchange WebSocket settings.
type ExchangeConfig struct {
	WSURL            string        `yaml:"ws_url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

// CredentialsConfig holds the login credentials. Prefer ${VAR} references over literals.
type CredentialsConfig struct {
	APIKey     string `yaml:"api_key"`
	Secret     string `yaml:"secret"`
	Passphrase string `yaml:"passphrase"`
}

// SupervisorConfig holds the restart policy for exchange sessions.
type SupervisorConfig struct {
	Delay       time.Duration `yaml:"delay"`
	MaxAttempts int           `yaml:"max_attempts"` // 0 = unbounded
	Backoff     string        `yaml:"backoff"`      // "constant" or "exponential"
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// FeedConfig holds the reference price feed settings.
type FeedConfig struct {
	Enabled          *bool         `yaml:"enabled"`
	WSURL            string        `yaml:"ws_url"`
	ProductID        string        `yaml:"product_id"`
	BufferSize       int           `yaml:"buffer_size"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// IsEnabled reports whether the feed should run. Unset means enabled.
func (f FeedConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}
