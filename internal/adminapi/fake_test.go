package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Refresh behaviors for fakeAdmin.
const (
	refreshOK           = "ok"
	refreshEmpty        = "empty"
	refreshDrop         = "drop"
	refreshUnauthorized = "unauthorized"
)

const (
	testPublicKey  = "pub-key"
	testPrivateKey = "priv-key"
	testGroupID    = "grp-config"
	serverGroupID  = "grp-server"
)

// fakeAdmin is an in-process Admin API with call counters. Each login mints
// access-loginN/refresh-loginN; each refresh mints access-refreshN.
type fakeAdmin struct {
	srv *httptest.Server

	requests  atomic.Int32
	logins    atomic.Int32
	refreshes atomic.Int32
	appLists  atomic.Int32

	mu            sync.Mutex
	loginBroken   bool // login responds without a refresh token
	loginStatus   int  // non-zero: login fails with this status
	refreshMode   string
	refreshGate   chan struct{} // non-nil: refresh blocks until closed
	apps          []App
	refreshToken  string            // refresh token issued by the last login
	resourceAuth  []string          // Authorization headers seen on resource calls
	resourceCalls []string          // "METHOD path" of resource calls
	resourceBody  map[string]string // "METHOD path" or path -> canned response body
}

func newFakeAdmin(t *testing.T) *fakeAdmin {
	t.Helper()

	f := &fakeAdmin{
		refreshMode: refreshOK,
		apps: []App{
			{ID: "", ClientAppID: "ignored-0", GroupID: serverGroupID},
			{ID: "app-1", ClientAppID: "client-app-1", GroupID: serverGroupID},
			{ID: "app-2", ClientAppID: "client-app-2", GroupID: serverGroupID},
		},
		resourceBody: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+loginPath, f.handleLogin)
	mux.HandleFunc("POST "+sessionPath, f.handleRefresh)
	mux.HandleFunc("GET /groups/{group}/apps", f.handleListApps)
	mux.HandleFunc("/", f.handleResource)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeAdmin) handleLogin(w http.ResponseWriter, r *http.Request) {
	var lr loginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil ||
		lr.Username != testPublicKey || lr.APIKey != testPrivateKey {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid key pair", ErrorCode: "InvalidSession"})

		return
	}

	n := f.logins.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loginStatus != 0 {
		writeJSON(w, f.loginStatus, errorBody{Error: "login unavailable"})

		return
	}

	resp := loginResponse{
		AccessToken:  fmt.Sprintf("access-login%d", n),
		RefreshToken: fmt.Sprintf("refresh-login%d", n),
		UserID:       fmt.Sprintf("user-%d", n),
	}

	if f.loginBroken {
		resp.RefreshToken = ""
	}

	f.refreshToken = resp.RefreshToken
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeAdmin) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n := f.refreshes.Add(1)

	f.mu.Lock()
	mode, gate, want := f.refreshMode, f.refreshGate, "Bearer "+f.refreshToken
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if r.Header.Get("Authorization") != want {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid refresh token"})

		return
	}

	switch mode {
	case refreshEmpty:
		writeJSON(w, http.StatusCreated, map[string]string{})
	case refreshDrop:
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		if conn, _, err := hj.Hijack(); err == nil {
			conn.Close()
		}
	case refreshUnauthorized:
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "refresh token expired"})
	default:
		writeJSON(w, http.StatusCreated, refreshResponse{AccessToken: fmt.Sprintf("access-refresh%d", n)})
	}
}

func (f *fakeAdmin) handleListApps(w http.ResponseWriter, r *http.Request) {
	f.appLists.Add(1)

	if r.URL.Query().Get("product") != atlasProduct {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing product filter"})

		return
	}

	if r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "no token"})

		return
	}

	f.mu.Lock()
	apps := f.apps
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, apps)
}

func (f *fakeAdmin) handleResource(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.resourceAuth = append(f.resourceAuth, r.Header.Get("Authorization"))
	f.resourceCalls = append(f.resourceCalls, r.Method+" "+r.URL.Path)
	body, ok := f.resourceBody[r.Method+" "+r.URL.Path]
	if !ok {
		body, ok = f.resourceBody[r.URL.Path]
	}
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodPut || r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case !ok:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", ErrorCode: "NotFound"})
	default:
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}

		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAdmin) set(fn func(f *fakeAdmin)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(f)
}

func (f *fakeAdmin) lastResourceAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.resourceAuth) == 0 {
		return ""
	}

	return f.resourceAuth[len(f.resourceAuth)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// newTestClient returns a Client pointed at f with a controllable clock.
func newTestClient(t *testing.T, f *fakeAdmin) (*Client, *fakeClock) {
	t.Helper()

	c, err := New(Options{
		PublicKey:  testPublicKey,
		PrivateKey: testPrivateKey,
		BaseURL:    f.srv.URL,
		GroupID:    testGroupID,
		HTTPClient: f.srv.Client(),
	})
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now

	return c, clock
}

// newInitializedClient is newTestClient followed by a successful Initialize.
func newInitializedClient(t *testing.T, f *fakeAdmin) (*Client, *fakeClock) {
	t.Helper()

	c, clock := newTestClient(t, f)
	require.NoError(t, c.Initialize(t.Context()))

	return c, clock
}
