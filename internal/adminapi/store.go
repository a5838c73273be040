package adminapi

import (
	"sync/atomic"
	"time"
)

// Identity is the long-lived credential set supplied at construction.
// It is never mutated after New returns.
type Identity struct {
	PublicKey  string
	PrivateKey string // NEVER log
	BaseURL    string
	GroupID    string // caller-supplied; the session's GroupID wins once resolved
}

// Session holds the short-lived artifacts of one successful login.
// A Session is either absent (nil) or complete: every field is populated
// before it is published through the store.
type Session struct {
	AccessToken  string // NEVER log
	RefreshToken string // NEVER log
	Expiry       time.Time
	GroupID      string // as returned by the service, authoritative
	AppID        string
	ClientAppID  string
	UserID       string
}

// withAccessToken returns a copy of s carrying a new access token and
// expiry. Every other field is carried over untouched.
func (s *Session) withAccessToken(token string, expiry time.Time) *Session {
	next := *s
	next.AccessToken = token
	next.Expiry = expiry

	return &next
}

// credentialStore holds the Identity and the current Session. Readers get
// the Session as an immutable snapshot; ReplaceSession swaps the whole value
// so a reader never pairs a new access token with a stale refresh token.
type credentialStore struct {
	identity Identity
	session  atomic.Pointer[Session]
}

func newCredentialStore(id Identity) *credentialStore {
	return &credentialStore{identity: id}
}

// Identity returns the immutable Identity.
func (s *credentialStore) Identity() Identity {
	return s.identity
}

// Session returns the current Session snapshot, or nil if the client has
// never authenticated. Callers must not mutate the returned value.
func (s *credentialStore) Session() *Session {
	return s.session.Load()
}

// ReplaceSession atomically publishes next as the current Session.
func (s *credentialStore) ReplaceSession(next *Session) {
	s.session.Store(next)
}
