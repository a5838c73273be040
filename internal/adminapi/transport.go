package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const userAgent = "appservices-go/0.1"

// transport executes single JSON requests against the Admin API.
// It performs no retries: the only recovery path in this package is
// the refresh guard's fallback to a full login.
type transport struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// request describes one Admin API call. bearer, when set, is sent as the
// Authorization header; handles leave it empty because their http.Client
// injects the token itself.
type request struct {
	method string
	path   string
	query  url.Values
	bearer string
	body   any
	out    any
}

// errorBody mirrors the Admin API JSON error response.
type errorBody struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// do executes req and decodes a 2xx response body into req.out (if non-nil).
// Non-2xx responses are returned as *APIError.
func (t *transport) do(ctx context.Context, req request) error {
	u := t.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader

	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("adminapi: encoding %s %s body: %w", req.method, req.path, err)
		}

		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("adminapi: creating request: %w", err)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if req.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.bearer)
	}

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("adminapi: request canceled: %w", ctx.Err())
		}

		return fmt.Errorf("adminapi: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return t.apiError(req, resp)
	}

	t.logger.Debug("request succeeded",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
	)

	if req.out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("adminapi: decoding %s %s response: %w", req.method, req.path, err)
	}

	return nil
}

// apiError builds an *APIError from a non-2xx response.
func (t *transport) apiError(req request, resp *http.Response) error {
	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		raw = []byte("(failed to read response body)")
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(raw),
		Err:        classifyStatus(resp.StatusCode),
	}

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		apiErr.Message = eb.Error
		apiErr.Code = eb.ErrorCode
	}

	t.logger.Debug("request failed",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.String("error_code", apiErr.Code),
	)

	return apiErr
}
