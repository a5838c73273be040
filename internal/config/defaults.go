package config

// Default values for configuration options. These are layer 0 of the
// override chain.
const (
	defaultBaseURL        = "https://services.cloud.mongodb.com/api/admin/v3.0"
	defaultTokenLifetime  = "30m"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultRequestTimeout = "30s"
)

// DefaultConfig returns a Config populated with all default values. It is
// both the starting point for TOML decoding (so unset fields keep their
// defaults) and the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		CredentialsConfig: CredentialsConfig{BaseURL: defaultBaseURL},
		SessionConfig:     SessionConfig{TokenLifetime: defaultTokenLifetime},
		LoggingConfig: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		NetworkConfig: NetworkConfig{RequestTimeout: defaultRequestTimeout},
	}
}
