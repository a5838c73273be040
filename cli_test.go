package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/appservices-go/internal/config"
)

const (
	cliPublicKey  = "cli-pub"
	cliPrivateKey = "cli-priv"
	cliGroupID    = "grp-cli"
)

// adminStub is a minimal Admin API: login, app listing and a triggers
// collection under app-1.
type adminStub struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls []string
	body  string // last request body seen on a resource call
}

func newAdminStub(t *testing.T) *adminStub {
	t.Helper()

	s := &adminStub{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/providers/mongodb-cloud/login", func(w http.ResponseWriter, _ *http.Request) {
		stubJSON(w, http.StatusOK, `{"access_token":"at","refresh_token":"rt","user_id":"user-cli"}`)
	})
	mux.HandleFunc("GET /groups/{group}/apps", func(w http.ResponseWriter, r *http.Request) {
		stubJSON(w, http.StatusOK, `[{"_id":"app-1","client_app_id":"client-1","group_id":"`+r.PathValue("group")+`"}]`)
	})

	triggers := "/groups/" + cliGroupID + "/apps/app-1/triggers"
	mux.HandleFunc("GET "+triggers, s.record(http.StatusOK,
		`[{"_id":"t1","name":"nightly","type":"SCHEDULED"},{"_id":"t2","name":"on-insert","type":"DATABASE"}]`))
	mux.HandleFunc("POST "+triggers, s.record(http.StatusCreated, `{"_id":"t3","name":"new"}`))
	mux.HandleFunc("GET "+triggers+"/{id}", s.record(http.StatusOK, `{"_id":"t1","name":"nightly"}`))
	mux.HandleFunc("PUT "+triggers+"/{id}", s.record(http.StatusNoContent, ""))
	mux.HandleFunc("DELETE "+triggers+"/{id}", s.record(http.StatusNoContent, ""))

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)

	return s
}

func (s *adminStub) record(status int, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.body = string(data)
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer at" {
			stubJSON(w, http.StatusUnauthorized, `{"error":"bad token"}`)

			return
		}

		if reply == "" {
			w.WriteHeader(status)

			return
		}

		stubJSON(w, status, reply)
	}
}

func (s *adminStub) recorded() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...), s.body
}

func stubJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func clearCLIEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		config.EnvConfig, config.EnvPublicKey, config.EnvPrivateKey, config.EnvGroupID, config.EnvBaseURL,
	} {
		t.Setenv(name, "")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
}

// useStub points the CLI at stub through environment overrides.
func useStub(t *testing.T, stub *adminStub) {
	t.Helper()

	clearCLIEnv(t)
	t.Setenv(config.EnvPublicKey, cliPublicKey)
	t.Setenv(config.EnvPrivateKey, cliPrivateKey)
	t.Setenv(config.EnvGroupID, cliGroupID)
	t.Setenv(config.EnvBaseURL, stub.srv.URL)
}

// executeCmd runs the root command with args and returns its stdout.
func executeCmd(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--quiet"))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	if stdin != nil {
		cmd.SetIn(stdin)
	}

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestWhoamiCmd_JSON(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "whoami", "--json")
	require.NoError(t, err)

	var got whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, cliGroupID, got.GroupID)
	assert.Equal(t, "app-1", got.AppID)
	assert.Equal(t, "client-1", got.ClientAppID)
	assert.Equal(t, "user-cli", got.UserID)
	assert.False(t, got.Expires.IsZero())
}

func TestWhoamiCmd_Text(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "App:         app-1")
	assert.Contains(t, out, "User:        user-cli")
}

func TestKindsCmd_RunsWithoutConfig(t *testing.T) {
	clearCLIEnv(t)

	out, err := executeCmd(t, nil, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Regexp(t, `rules\s+service`, out)
	assert.Regexp(t, `apps\s+group`, out)
	assert.Regexp(t, `triggers\s+app`, out)
}

func TestListCmd_Table(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "list", "triggers")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^ID\s+NAME\s+TYPE`, lines[0])
	assert.Regexp(t, `^t1\s+nightly\s+SCHEDULED`, lines[1])
	assert.Regexp(t, `^t2\s+on-insert\s+DATABASE`, lines[2])
}

func TestListCmd_JSON(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "list", "triggers", "--json")
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "t2", docs[1]["_id"])
}

func TestListCmd_UnknownKindMakesNoCalls(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, nil, "list", "widgets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widgets")

	calls, _ := stub.recorded()
	assert.Empty(t, calls)
}

func TestListCmd_RulesNeedService(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, nil, "list", "rules")
	require.Error(t, err)

	calls, _ := stub.recorded()
	assert.Empty(t, calls)
}

func TestListCmd_BadQuery(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, nil, "list", "triggers", "--query", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key=value")
}

func TestGetCmd(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "get", "triggers", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "nightly"`)

	calls, _ := stub.recorded()
	assert.Equal(t, []string{"GET /groups/" + cliGroupID + "/apps/app-1/triggers/t1"}, calls)
}

func TestCreateCmd_FromStdin(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, strings.NewReader(`{"name":"new"}`), "create", "triggers", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"_id": "t3"`)

	calls, body := stub.recorded()
	assert.Equal(t, []string{"POST /groups/" + cliGroupID + "/apps/app-1/triggers"}, calls)
	assert.JSONEq(t, `{"name":"new"}`, body)
}

func TestCreateCmd_RejectsInvalidJSON(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, strings.NewReader(`{not json`), "create", "triggers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")

	calls, _ := stub.recorded()
	assert.Empty(t, calls)
}

func TestUpdateCmd_FromFile(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	path := filepath.Join(t.TempDir(), "trigger.json")
	require.NoError(t, writeFile(path, `{"name":"renamed"}`))

	_, err := executeCmd(t, nil, "update", "triggers", "t1", "--data", path)
	require.NoError(t, err)

	calls, body := stub.recorded()
	assert.Equal(t, []string{"PUT /groups/" + cliGroupID + "/apps/app-1/triggers/t1"}, calls)
	assert.JSONEq(t, `{"name":"renamed"}`, body)
}

func TestDeleteCmd(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, nil, "delete", "triggers", "t2")
	require.NoError(t, err)

	calls, _ := stub.recorded()
	assert.Equal(t, []string{"DELETE /groups/" + cliGroupID + "/apps/app-1/triggers/t2"}, calls)
}

func TestConfigShowCmd_RedactsPrivateKey(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `public_key = "`+cliPublicKey+`"`)
	assert.NotContains(t, out, cliPrivateKey)

	out, err = executeCmd(t, nil, "config", "show", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, cliPrivateKey)
	assert.Contains(t, out, `"group_id": "`+cliGroupID+`"`)
}

func TestGroupFlagOverridesEnv(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	out, err := executeCmd(t, nil, "config", "show", "--json", "--group", "grp-flag")
	require.NoError(t, err)
	assert.Contains(t, out, `"group_id": "grp-flag"`)
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery([]string{"product=atlas", "tag=a", "tag=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "atlas", q.Get("product"))
	assert.Equal(t, []string{"a", "b"}, q["tag"])
	assert.Equal(t, "", q.Get("empty"))

	q, err = parseQuery(nil)
	require.NoError(t, err)
	assert.Nil(t, q)

	_, err = parseQuery([]string{"=x"})
	assert.Error(t, err)
}

func TestSummarizeDocuments(t *testing.T) {
	rows := summarizeDocuments([]json.RawMessage{
		json.RawMessage(`{"_id":"f1","name":"hello"}`),
		json.RawMessage(`{"_id":"svc","type":"mongodb-atlas"}`),
		json.RawMessage(`"not an object"`),
	})

	assert.Equal(t, [][]string{
		{"f1", "hello", "-"},
		{"svc", "-", "mongodb-atlas"},
		{"-", "-", "-"},
	}, rows)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestConfigFlag_MissingFileFails(t *testing.T) {
	stub := newAdminStub(t)
	useStub(t, stub)

	_, err := executeCmd(t, nil, "config", "show", "--config", filepath.Join(t.TempDir(), "typo.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo.toml")
}
