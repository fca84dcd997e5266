// Package testserver runs the full traq stack over real HTTP for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/corona10/goimagehash"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/hmahadik/traq/internal/app"
	"github.com/hmahadik/traq/internal/config"
	"github.com/hmahadik/traq/internal/domain/capture"
	"github.com/hmahadik/traq/internal/sqlite"
	"github.com/hmahadik/traq/internal/transport"
)

// TestServer is a wired engine with its ingest endpoint and MCP endpoint
// served on loopback. Both require Token.
type TestServer struct {
	App    *app.App
	Ingest *httptest.Server
	MCP    *httptest.Server
	Token  string
}

// New starts a server over a fresh database. mutate may adjust the config
// before wiring.
func New(t *testing.T, token string, mutate func(*config.Config)) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = filepath.Join(t.TempDir(), "traq.db")
	cfg.Transport.Mode = "http"
	cfg.Auth.Enabled = true
	cfg.Timeline.TimeZone = "UTC"
	cfg.Ingest.Tokens = map[string]string{token: "test-collector"}
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	db, err := sqlite.Open(cfg.DB.Path, sqlite.Options{Retries: cfg.Storage.Retries, Backoff: cfg.StorageBackoff()})
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	a, err := app.New(context.Background(), cfg, db, nil)
	require.NoError(t, err)

	ts := &TestServer{
		App:    a,
		Ingest: httptest.NewServer(a.IngestHandler()),
		MCP:    httptest.NewServer(a.MCPHTTPHandler()),
		Token:  token,
	}
	t.Cleanup(func() {
		ts.MCP.Close()
		ts.Ingest.Close()
		_ = a.Close()
	})
	return ts
}

// Observe posts observations as one batch and returns the decoded envelope.
func (ts *TestServer) Observe(t *testing.T, obs ...capture.Observation) transport.Response {
	t.Helper()
	params, err := json.Marshal(map[string]any{"observations": obs})
	require.NoError(t, err)
	return ts.call(t, transport.Request{JSONRPC: "2.0", ID: 1, Method: transport.MethodObserveBatch, Params: params})
}

// Lock posts a lock signal.
func (ts *TestServer) Lock(t *testing.T, sig capture.LockSignal) transport.Response {
	t.Helper()
	params, err := json.Marshal(sig)
	require.NoError(t, err)
	return ts.call(t, transport.Request{JSONRPC: "2.0", ID: 1, Method: transport.MethodLock, Params: params})
}

func (ts *TestServer) call(t *testing.T, req transport.Request) transport.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, ts.Ingest.URL+"/ingest", bytes.NewReader(body))
	require.NoError(t, err)
	httpReq.Header.Set("Authorization", "Bearer "+ts.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Tick runs one ingest pass synchronously.
func (ts *TestServer) Tick(t *testing.T) capture.TickReport {
	t.Helper()
	return ts.App.Runner.RunOnce(context.Background())
}

// Connect opens an MCP client session over streamable HTTP with the bearer token.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.MCP.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: ts.Token, next: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// CallJSON calls a tool and decodes its text result into out. It fails the
// test on a tool error.
func CallJSON(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	text := Text(t, result)
	require.False(t, result.IsError, "%s: %s", name, text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
}

// Text returns the first text content of a tool result.
func Text(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

// Hash renders v as a dHash string.
func Hash(v uint64) string {
	return goimagehash.NewImageHash(v, goimagehash.DHash).ToString()
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}
