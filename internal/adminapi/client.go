package adminapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the production Admin API root.
const DefaultBaseURL = "https://services.cloud.mongodb.com/api/admin/v3.0"

// DefaultTokenLifetime is the assumed lifetime of an access token. The
// service does not report a TTL, so this is an estimate rather than a
// protocol guarantee; override it with Options.TokenLifetime.
const DefaultTokenLifetime = 30 * time.Minute

// minTokenLifetime keeps the lifetime safely above ExpiryMargin.
const minTokenLifetime = time.Minute

// Options configures a Client. PublicKey, PrivateKey and GroupID are
// required; the rest have defaults.
type Options struct {
	PublicKey     string
	PrivateKey    string
	BaseURL       string        // defaults to DefaultBaseURL
	GroupID       string        // workspace id; replaced by the service's value on Initialize
	TokenLifetime time.Duration // defaults to DefaultTokenLifetime
	HTTPClient    *http.Client  // defaults to http.DefaultClient
	Logger        *slog.Logger  // nil discards all log output
}

// validate applies defaults and checks the options. All violations are
// reported together.
func (o *Options) validate() error {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}

	o.BaseURL = strings.TrimRight(o.BaseURL, "/")

	if o.TokenLifetime == 0 {
		o.TokenLifetime = DefaultTokenLifetime
	}

	return validation.ValidateStruct(o,
		validation.Field(&o.PublicKey, validation.Required),
		validation.Field(&o.PrivateKey, validation.Required),
		validation.Field(&o.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&o.GroupID, validation.Required),
		validation.Field(&o.TokenLifetime, validation.Min(minTokenLifetime)),
	)
}

// Client is an authenticated Admin API client. It owns one Session, shared
// by every goroutine using the client, and hands out per-resource handles
// that are bound to the credentials current at the time of the request.
//
// Call Initialize once before requesting any handle.
type Client struct {
	store         *credentialStore
	auth          *transport
	httpClient    *http.Client
	logger        *slog.Logger
	tokenLifetime time.Duration

	// refreshes collapses concurrent refresh-or-relogin attempts for the
	// same session into one in-flight exchange.
	refreshes singleflight.Group

	// now returns the current time. Tests override this to move the clock.
	now func() time.Time
}

// New validates opts and returns an uninitialized Client. No network
// activity happens until Initialize.
func New(opts Options) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		store: newCredentialStore(Identity{
			PublicKey:  opts.PublicKey,
			PrivateKey: opts.PrivateKey,
			BaseURL:    opts.BaseURL,
			GroupID:    opts.GroupID,
		}),
		auth: &transport{
			baseURL:    opts.BaseURL,
			httpClient: httpClient,
			logger:     logger,
		},
		httpClient:    httpClient,
		logger:        logger,
		tokenLifetime: opts.TokenLifetime,
		now:           time.Now,
	}, nil
}

// GroupID returns the service-confirmed workspace id, or "" before a
// successful Initialize.
func (c *Client) GroupID() string {
	if s := c.store.Session(); s != nil {
		return s.GroupID
	}

	return ""
}

// AppID returns the resolved internal application id ("_id").
func (c *Client) AppID() string {
	if s := c.store.Session(); s != nil {
		return s.AppID
	}

	return ""
}

// ClientAppID returns the resolved client-facing application id.
func (c *Client) ClientAppID() string {
	if s := c.store.Session(); s != nil {
		return s.ClientAppID
	}

	return ""
}

// UserID returns the authenticated subject id.
func (c *Client) UserID() string {
	if s := c.store.Session(); s != nil {
		return s.UserID
	}

	return ""
}

// SessionExpiry returns the assumed expiry of the current access token, or
// the zero time before Initialize.
func (c *Client) SessionExpiry() time.Time {
	if s := c.store.Session(); s != nil {
		return s.Expiry
	}

	return time.Time{}
}
