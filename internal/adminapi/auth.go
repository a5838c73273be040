package adminapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// Admin API authentication endpoints.
const (
	loginPath    = "/auth/providers/mongodb-cloud/login"
	sessionPath  = "/auth/session"
	atlasProduct = "atlas"
)

// loginRequest is the key-pair credential exchange body.
type loginRequest struct {
	Username string `json:"username"`
	APIKey   string `json:"apiKey"`
}

// loginResponse mirrors the credential exchange response.
type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// refreshResponse mirrors the session renewal response.
type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Initialize logs in with the configured key pair and resolves the
// workspace's application identity. The new Session is published only if
// both steps succeed; on failure the previous state (usually none) is kept.
//
// Initialize must be called before any handle is requested. Calling it
// again re-authenticates and may change the group and app ids.
func (c *Client) Initialize(ctx context.Context) error {
	c.logger.Info("initializing admin api session",
		slog.String("base_url", c.store.Identity().BaseURL),
		slog.String("group_id", c.store.Identity().GroupID),
	)

	sess, err := c.authenticate(ctx)
	if err != nil {
		return err
	}

	c.store.ReplaceSession(sess)

	c.logger.Info("admin api session ready",
		slog.String("group_id", sess.GroupID),
		slog.String("app_id", sess.AppID),
		slog.String("client_app_id", sess.ClientAppID),
		slog.Time("expiry", sess.Expiry),
	)

	return nil
}

// authenticate runs login followed by resolveIdentity and returns the
// complete Session without publishing it.
func (c *Client) authenticate(ctx context.Context) (*Session, error) {
	sess, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.resolveIdentity(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

// login performs the key-pair credential exchange. The returned Session
// carries tokens and user id only; resolveIdentity fills in the rest.
func (c *Client) login(ctx context.Context) (*Session, error) {
	id := c.store.Identity()

	c.logger.Debug("exchanging key pair for session",
		slog.String("public_key", id.PublicKey),
	)

	var lr loginResponse

	err := c.auth.do(ctx, request{
		method: http.MethodPost,
		path:   loginPath,
		body:   loginRequest{Username: id.PublicKey, APIKey: id.PrivateKey},
		out:    &lr,
	})
	if err != nil {
		c.logger.Error("credential exchange failed", slog.String("error", err.Error()))

		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	if lr.AccessToken == "" || lr.RefreshToken == "" {
		c.logger.Error("credential exchange returned no usable tokens",
			slog.Bool("has_access_token", lr.AccessToken != ""),
			slog.Bool("has_refresh_token", lr.RefreshToken != ""),
		)

		return nil, ErrAuthentication
	}

	return &Session{
		AccessToken:  lr.AccessToken,
		RefreshToken: lr.RefreshToken,
		Expiry:       c.now().Add(c.tokenLifetime),
		UserID:       lr.UserID,
	}, nil
}

// resolveIdentity lists the workspace's Atlas applications and records the
// first one with an internal id on sess. The group id returned by the
// service replaces the configured one.
func (c *Client) resolveIdentity(ctx context.Context, sess *Session) error {
	groupID := c.store.Identity().GroupID

	var apps []App

	err := c.auth.do(ctx, request{
		method: http.MethodGet,
		path:   "/groups/" + url.PathEscape(groupID) + "/apps",
		query:  url.Values{"product": {atlasProduct}},
		bearer: sess.AccessToken,
		out:    &apps,
	})
	if err != nil {
		c.logger.Error("listing workspace applications failed",
			slog.String("group_id", groupID),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("%w: %w", ErrIdentityResolution, err)
	}

	for i := range apps {
		if apps[i].ID == "" {
			continue
		}

		sess.AppID = apps[i].ID
		sess.ClientAppID = apps[i].ClientAppID
		sess.GroupID = apps[i].GroupID

		if sess.GroupID == "" {
			sess.GroupID = groupID
		}

		c.logger.Debug("resolved application identity",
			slog.String("app_id", sess.AppID),
			slog.String("group_id", sess.GroupID),
			slog.Int("candidates", len(apps)),
		)

		return nil
	}

	c.logger.Error("no application found in workspace",
		slog.String("group_id", groupID),
		slog.Int("candidates", len(apps)),
	)

	return ErrIdentityResolution
}
