package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig     = "APPSERVICES_GO_CONFIG"
	EnvPublicKey  = "APPSERVICES_PUBLIC_KEY"
	EnvPrivateKey = "APPSERVICES_PRIVATE_KEY"
	EnvGroupID    = "APPSERVICES_GROUP_ID"
	EnvBaseURL    = "APPSERVICES_BASE_URL"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // APPSERVICES_GO_CONFIG: override config file path
	PublicKey  string // APPSERVICES_PUBLIC_KEY
	PrivateKey string // APPSERVICES_PRIVATE_KEY
	GroupID    string // APPSERVICES_GROUP_ID
	BaseURL    string // APPSERVICES_BASE_URL
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		PublicKey:  os.Getenv(EnvPublicKey),
		PrivateKey: os.Getenv(EnvPrivateKey),
		GroupID:    os.Getenv(EnvGroupID),
		BaseURL:    os.Getenv(EnvBaseURL),
	}
}
