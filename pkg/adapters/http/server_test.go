package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/aretw0/wizvis/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const turnstile = `<scxml name="turnstile" initial="locked">
  <datamodel><data id="t" expr="{&quot;coins&quot;: 0, &quot;owner&quot;: {&quot;name&quot;: &quot;metro&quot;}}"/></datamodel>
  <state id="locked">
    <transition event="coin" cond="t.coins &gt; 0" target="unlocked"/>
  </state>
  <state id="unlocked">
    <transition event="push" target="locked"/>
  </state>
</scxml>`

func writeTurnstile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.scxml")
	require.NoError(t, os.WriteFile(path, []byte(turnstile), 0644))
	return path
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *wizvis.Inspector) {
	t.Helper()
	insp := wizvis.New()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	srv := httptest.NewServer(NewHandler(insp, opts...))
	t.Cleanup(srv.Close)
	return srv, insp
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestServer_NotLoaded(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	for _, path := range []string{"/states", "/states/locked", "/tree", "/active", "/data", "/data/coins", "/graph", "/snapshot"} {
		resp, _ := do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode, path)
	}
	resp, _ = do(t, http.MethodPost, srv.URL+"/events/coin", "")
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestServer_Walkthrough(t *testing.T) {
	srv, insp := newTestServer(t)
	path := writeTurnstile(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/open", `{"path":"`+filepath.ToSlash(path)+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var snap wizvis.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, "turnstile", snap.Name)
	assert.Equal(t, []string{"locked", "unlocked"}, snap.States)

	resp, body = do(t, http.MethodGet, srv.URL+"/active", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active []domain.ActiveStateView
	require.NoError(t, json.Unmarshal([]byte(body), &active))
	require.Len(t, active, 1)
	assert.False(t, active[0].Transitions[0].Enabled)

	resp, _ = do(t, http.MethodPost, srv.URL+"/events/coin", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodPut, srv.URL+"/data/coins", `{"value":"1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"path":"coins","value":"1"}`, body)

	resp, body = do(t, http.MethodPost, srv.URL+"/eval", `{"expr":"t.coins > 0"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"expr":"t.coins > 0","result":true}`, body)

	resp, body = do(t, http.MethodPost, srv.URL+"/events/coin", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.JSONEq(t, `{"event":"coin","active":["unlocked"],"entered":["unlocked"],"exited":["locked"]}`, body)
	assert.Equal(t, []string{"unlocked"}, domain.IDs(insp.ActiveStates()))

	resp, body = do(t, http.MethodGet, srv.URL+"/data/owner/name", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"path":"owner.name","value":"metro"}`, body)

	resp, _ = do(t, http.MethodGet, srv.URL+"/data/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "stateDiagram-v2")
	assert.Contains(t, body, "class unlocked active")

	resp, body = do(t, http.MethodGet, srv.URL+"/states/unlocked", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"id":"unlocked"`)

	resp, _ = do(t, http.MethodGet, srv.URL+"/states/nowhere", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/recent", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "turnstile.scxml")
}

func TestServer_OpenErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/open", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/open", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/open", `{"path":"/does/not/exist.scxml"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bad := filepath.Join(t.TempDir(), "bad.scxml")
	require.NoError(t, os.WriteFile(bad, []byte(`<scxml initial="ghost"><state id="a"/></scxml>`), 0644))
	resp, _ = do(t, http.MethodPost, srv.URL+"/open", `{"path":"`+filepath.ToSlash(bad)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_OpenAPI(t *testing.T) {
	spec, err := Spec()
	require.NoError(t, err)
	require.NotNil(t, spec.Paths.Value("/data/{path}"))

	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/openapi.yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "openapi: 3.0.3")

	resp, body = do(t, http.MethodGet, srv.URL+"/info", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"api_version":"`+spec.Info.Version+`"`)
}

func TestServer_RequestBodyValidation(t *testing.T) {
	srv, insp := newTestServer(t)
	require.NoError(t, insp.Open(context.Background(), writeTurnstile(t)))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"eval without expr", http.MethodPost, "/eval", `{}`},
		{"eval with number", http.MethodPost, "/eval", `{"expr": 1}`},
		{"assign without value", http.MethodPut, "/data/coins", `{}`},
		{"assign with number", http.MethodPut, "/data/coins", `{"value": 3}`},
		{"open with empty path", http.MethodPost, "/open", `{"path": ""}`},
		{"empty body", http.MethodPost, "/open", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Contains(t, body, "invalid request body")
		})
	}
	v, _ := insp.Get("coins")
	assert.Equal(t, float64(0), v, "rejected bodies change nothing")
}

func TestServer_OpenWithDataOverride(t *testing.T) {
	srv, insp := newTestServer(t)
	dir := t.TempDir()
	chart := filepath.Join(dir, "turnstile.scxml")
	declared := strings.Replace(turnstile, `expr="{&quot;coins&quot;: 0, &quot;owner&quot;: {&quot;name&quot;: &quot;metro&quot;}}"`, `src="missing.json"`, 1)
	require.NoError(t, os.WriteFile(chart, []byte(declared), 0644))
	data := filepath.Join(dir, "paid.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"coins": 2}`), 0644))

	resp, _ := do(t, http.MethodPost, srv.URL+"/open", `{"path":"`+filepath.ToSlash(chart)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "declared baseline is missing")

	resp, body := do(t, http.MethodPost, srv.URL+"/open", `{"path":"`+filepath.ToSlash(chart)+`","data":"`+filepath.ToSlash(data)+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, insp.IsExpressionTrue(context.Background(), "t.coins > 0"))

	resp, _ = do(t, http.MethodPost, srv.URL+"/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, data, insp.DataPath())
}

func TestServer_AssignWithoutDataModel(t *testing.T) {
	srv, insp := newTestServer(t)
	require.NoError(t, insp.Load(context.Background(), &domain.Definition{
		Name:   "bare",
		States: []*domain.StateNode{{ID: "only"}},
	}, ""))

	resp, _ := do(t, http.MethodPut, srv.URL+"/data/x", `{"value":"1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	insp := wizvis.New(wizvis.WithLifecycleHooks(m.Hooks()))
	srv := httptest.NewServer(NewHandler(insp, WithGatherer(reg)))
	defer srv.Close()

	require.NoError(t, insp.Open(context.Background(), writeTurnstile(t)))

	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `wizvis_definition_loads_total{result="ok"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	srv, insp := newTestServer(t)
	require.NoError(t, insp.Open(context.Background(), writeTurnstile(t)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?kinds=refresh", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	require.Equal(t, "event: ping", <-lines)

	require.NoError(t, insp.AssignDataValue(context.Background(), "coins", "2"))

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if strings.HasPrefix(line, "event: ") && line != "event: ping" {
				assert.Equal(t, "event: refresh", line)
				data := <-lines
				assert.Contains(t, data, `"path":"coins"`)
				return
			}
		case <-timeout:
			t.Fatal("no refresh notification received")
		}
	}
}
