package config

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validation range constants.
const (
	minTokenLifetime  = 1 * time.Minute
	maxTokenLifetime  = 24 * time.Hour
	minRequestTimeout = 1 * time.Second
)

var (
	validLogLevels  = []any{"debug", "info", "warn", "error"}
	validLogFormats = []any{"auto", "text", "json"}
)

// Validate checks the values of a loaded config file. Credentials may still
// be missing here because the environment can supply them; ValidateResolved
// checks them after all overrides are applied. Every error is reported, not
// just the first.
func Validate(cfg *Config) error {
	return validation.Errors{
		"base_url": validation.Validate(cfg.BaseURL, is.RequestURL),
		"token_lifetime": validation.Validate(cfg.TokenLifetime,
			validation.By(durationBetween(minTokenLifetime, maxTokenLifetime))),
		"request_timeout": validation.Validate(cfg.RequestTimeout,
			validation.By(durationBetween(minRequestTimeout, 0))),
		"log_level":  validation.Validate(cfg.LogLevel, validation.In(validLogLevels...)),
		"log_format": validation.Validate(cfg.LogFormat, validation.In(validLogFormats...)),
	}.Filter()
}

// ValidateResolved checks a config after the full override chain. On top of
// Validate it requires the credentials that New needs.
func ValidateResolved(cfg *Config) error {
	required := validation.Errors{
		"public_key":  validation.Validate(cfg.PublicKey, validation.Required),
		"private_key": validation.Validate(cfg.PrivateKey, validation.Required),
		"group_id":    validation.Validate(cfg.GroupID, validation.Required),
		"base_url":    validation.Validate(cfg.BaseURL, validation.Required),
	}.Filter()

	return errors.Join(required, Validate(cfg))
}

// durationBetween returns a rule accepting empty strings and Go durations
// in [low, high]. A zero high means no upper bound.
func durationBetween(low, high time.Duration) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("must be a duration such as 30s or 5m: %w", err)
		}

		if d < low {
			return fmt.Errorf("must be at least %s", low)
		}

		if high > 0 && d > high {
			return fmt.Errorf("must be at most %s", high)
		}

		return nil
	}
}
