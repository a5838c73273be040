// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for appservices-go. Values resolve
// through the override chain defaults -> config file -> environment -> CLI
// flags.
package config

import "time"

// Config is the top-level configuration parsed from a TOML file. All keys
// are flat; the embedded sections only group them in Go.
type Config struct {
	CredentialsConfig
	SessionConfig
	LoggingConfig
	NetworkConfig
}

// CredentialsConfig identifies the caller and the workspace. The key pair
// is an Atlas programmatic API key.
type CredentialsConfig struct {
	PublicKey  string `toml:"public_key" json:"public_key"`
	PrivateKey string `toml:"private_key" json:"private_key"`
	GroupID    string `toml:"group_id" json:"group_id"`
	BaseURL    string `toml:"base_url" json:"base_url"`
}

// SessionConfig controls session renewal. token_lifetime is the assumed
// access token lifetime; the service does not report one.
type SessionConfig struct {
	TokenLifetime string `toml:"token_lifetime" json:"token_lifetime"`
}

// LoggingConfig controls log output: level and format (text, json, or
// auto to pick text on a terminal and JSON otherwise).
type LoggingConfig struct {
	LogLevel  string `toml:"log_level" json:"log_level"`
	LogFormat string `toml:"log_format" json:"log_format"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	RequestTimeout string `toml:"request_timeout" json:"request_timeout"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Empty strings mean "not specified".
type CLIOverrides struct {
	ConfigPath string // --config flag
	GroupID    string // --group flag
}

// TokenLifetimeDuration returns the parsed token lifetime. The value is
// validated on load; an unparsable value yields zero (client default).
func (c *Config) TokenLifetimeDuration() time.Duration {
	d, err := time.ParseDuration(c.TokenLifetime)
	if err != nil {
		return 0
	}

	return d
}

// RequestTimeoutDuration returns the parsed HTTP request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0
	}

	return d
}

// Redacted returns a copy of c that is safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.PrivateKey != "" {
		out.PrivateKey = redactedValue
	}

	return &out
}

const redactedValue = "********"
