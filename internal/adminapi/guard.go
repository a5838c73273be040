package adminapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ExpiryMargin is how long before its expiry an access token is already
// treated as expired, so a call approved just before expiry does not carry
// a token that lapses in flight.
const ExpiryMargin = 30 * time.Second

// errEmptyRefresh marks a renewal response without an access token.
var errEmptyRefresh = errors.New("adminapi: session renewal returned no access token")

// valid reports whether s can be used at now without refreshing.
func valid(s *Session, now time.Time) bool {
	if s == nil || s.Expiry.IsZero() {
		return false
	}

	return now.Before(s.Expiry.Add(-ExpiryMargin))
}

// ensureSession returns a Session that is valid right now, refreshing or
// re-authenticating first if needed. It never runs on a timer; every handle
// request calls it immediately before building the handle.
func (c *Client) ensureSession(ctx context.Context) (*Session, error) {
	sess := c.store.Session()
	if sess == nil {
		return nil, ErrNotInitialized
	}

	if valid(sess, c.now()) {
		return sess, nil
	}

	// Callers racing on the same stale session share one renewal. The flight
	// is detached from any single caller's cancellation; each caller stops
	// waiting when its own ctx is done.
	flight := context.WithoutCancel(ctx)

	ch := c.refreshes.DoChan(sess.RefreshToken, func() (any, error) {
		return c.renew(flight)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		if res.Shared {
			c.logger.Debug("joined in-flight session renewal")
		}

		return res.Val.(*Session), nil
	}
}

// renew refreshes the access token, falling back to a full login and
// identity resolution when the refresh cannot produce a token.
func (c *Client) renew(ctx context.Context) (*Session, error) {
	// A flight that finished just before this one may already have renewed.
	sess := c.store.Session()
	if valid(sess, c.now()) {
		return sess, nil
	}

	next, err := c.refresh(ctx, sess)
	if err == nil {
		c.store.ReplaceSession(next)
		c.logger.Info("access token refreshed", slog.Time("expiry", next.Expiry))

		return next, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	c.logger.Warn("session renewal failed, logging in again",
		slog.String("error", err.Error()),
	)

	fresh, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	c.store.ReplaceSession(fresh)
	c.logger.Info("re-authenticated admin api session",
		slog.String("group_id", fresh.GroupID),
		slog.String("app_id", fresh.AppID),
		slog.Time("expiry", fresh.Expiry),
	)

	return fresh, nil
}

// refresh exchanges the stored refresh token for a new access token. Only
// the access token and expiry change; everything else is carried over.
func (c *Client) refresh(ctx context.Context, sess *Session) (*Session, error) {
	var rr refreshResponse

	err := c.auth.do(ctx, request{
		method: http.MethodPost,
		path:   sessionPath,
		bearer: sess.RefreshToken,
		out:    &rr,
	})
	if err != nil {
		return nil, err
	}

	if rr.AccessToken == "" {
		return nil, errEmptyRefresh
	}

	return sess.withAccessToken(rr.AccessToken, c.now().Add(c.tokenLifetime)), nil
}
