package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/crewboard/internal/config"
	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/errors"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/observability"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/store"
)

func crew() *diagram.Diagram {
	return &diagram.Diagram{
		Name: "research crew",
		Nodes: []diagram.Node{
			{Key: "researcher", Role: "Researcher"},
			{Key: "writer", Role: "Writer"},
			{Key: "output", Role: "Output"},
		},
		Links: []diagram.Link{
			{ID: "l1", From: "researcher", To: "writer", Description: "Collect notes"},
			{ID: "l2", From: "writer", To: "output", Description: "Draft the report"},
		},
	}
}

type fixture struct {
	srv   *Server
	store *store.FileStore
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	srv := New(config.Default().Server, st, pipeline.NewRunner(nil, nil, nil), opts...)
	return &fixture{srv: srv, store: st}
}

func (f *fixture) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestDiagramLibrary(t *testing.T) {
	f := newFixture(t)

	t.Run("Empty List", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/designer/list-json-files", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Save With String Payload", func(t *testing.T) {
		body := mustJSON(t, map[string]string{
			"name":    "Research crew",
			"diagram": string(mustJSON(t, crew())),
		})
		rec := f.do(t, http.MethodPost, "/designer/save-diagram", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SaveResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Research_crew.json", resp.Filename)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("Save With Object Payload", func(t *testing.T) {
		body := mustJSON(t, map[string]any{"name": "other", "diagram": crew()})
		rec := f.do(t, http.MethodPost, "/designer/save-diagram", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("List", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/designer/list-json-files", nil)
		assert.JSONEq(t, `["Research_crew.json","other.json"]`, rec.Body.String())
	})

	t.Run("Get", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/designer/get-diagram/Research_crew", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var d diagram.Diagram
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
		assert.Len(t, d.Nodes, 3)
		assert.Len(t, d.Links, 2)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/designer/delete-diagram/other.json", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())

		rec = f.do(t, http.MethodDelete, "/designer/delete-diagram/other.json", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errors.ErrCodeDiagramNotFound, decodeError(t, rec).Code)
	})

	t.Run("Get Missing", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/designer/get-diagram/missing.json", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "diagram not found", decodeError(t, rec).Detail)
	})
}

func TestSaveDiagramRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"malformed body", `{`, errors.ErrCodeInvalidInput},
		{"missing name", `{"diagram":"{}"}`, errors.ErrCodeInvalidName},
		{"missing diagram", `{"name":"x"}`, errors.ErrCodeInvalidInput},
		{"diagram not json", `{"name":"x","diagram":"not json"}`, errors.ErrCodeInvalidFormat},
		{"traversal", `{"name":"../x","diagram":"{}"}`, errors.ErrCodeInvalidName},
	}
	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/designer/save-diagram", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestGetDiagramInvalidJSONFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, writeRaw(f.store, "broken.json", "{not json"))
	rec := f.do(t, http.MethodGet, "/designer/get-diagram/broken.json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayout(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/layout", mustJSON(t, crew()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	l, err := graph.UnmarshalLayout(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, graph.VizTypeCanvas, l.VizType)
	assert.Equal(t, [][]string{{"researcher"}, {"writer"}, {"output"}}, l.Levels)

	n, ok := l.Node("researcher")
	require.True(t, ok)
	assert.InDelta(t, 552.5, n.X, 1e-9)
	assert.InDelta(t, 150.0, n.Y, 1e-9)

	out, ok := l.Node("output")
	require.True(t, ok)
	assert.InDelta(t, 750.0, out.Y, 1e-9)
}

func TestLayoutWidthParameter(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/layout?width=400", mustJSON(t, crew()))
	require.Equal(t, http.StatusOK, rec.Code)

	l, err := graph.UnmarshalLayout(rec.Body.Bytes())
	require.NoError(t, err)
	n, _ := l.Node("researcher")
	// The level is wider than the canvas, so it starts at the side margin.
	assert.InDelta(t, 200.0+87.5, n.X, 1e-9)
}

func TestLayoutRejectsBadParameters(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		target string
		code   errors.Code
	}{
		{"/designer/layout?width=wide", errors.ErrCodeInvalidInput},
		{"/designer/layout?width=-5", errors.ErrCodeInvalidInput},
		{"/designer/layout?width=NaN", errors.ErrCodeInvalidInput},
		{"/designer/layout?width=Inf", errors.ErrCodeInvalidInput},
		{"/designer/render?width=-Inf", errors.ErrCodeInvalidInput},
		{"/designer/layout?type=tower", errors.ErrCodeInvalidVizType},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.target, mustJSON(t, crew()))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	rec := f.do(t, http.MethodPost, "/designer/layout", []byte("nope"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
}

func TestRenderCanvasSVG(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/render", mustJSON(t, crew()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "<svg") ||
		strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "<?xml"))
}

func TestRenderNodelinkDOT(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/render?format=dot&type=nodelink", mustJSON(t, crew()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/vnd.graphviz")
	assert.Contains(t, rec.Body.String(), "digraph")
}

func TestRenderDOTNeedsNodelink(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/render?format=dot", mustJSON(t, crew()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
}

func TestExecutionPlan(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/execution-plan", mustJSON(t, crew()))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1, resp.BranchesCount)
	require.NotNil(t, resp.Plan)
	require.Len(t, resp.Plan.Steps, 2)
	assert.Equal(t, "Collect notes", resp.Plan.Steps[0].Description)
	assert.Equal(t, []string{"researcher", "writer", "output"}, resp.Plan.Order)
}

func TestExecutionPlanCycle(t *testing.T) {
	d := crew()
	d.Links = append(d.Links, diagram.Link{ID: "back", From: "writer", To: "researcher"})

	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/designer/execution-plan", mustJSON(t, d))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Nil(t, resp.Plan)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	t.Run("Allowed Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/designer/save-diagram", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Foreign Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "crewboard_up 1\n")
	})
	f = newFixture(t, WithMetrics(metrics))
	rec = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crewboard_up")
}

type recordingHTTPHooks struct {
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, _, route string, code int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.codes = append(h.codes, code)
}

func TestHTTPHooksUseRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	f := newFixture(t)
	f.do(t, http.MethodGet, "/designer/get-diagram/missing.json", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	require.Len(t, hooks.routes, 1)
	assert.Equal(t, "/designer/get-diagram/{filename}", hooks.routes[0])
	assert.Equal(t, http.StatusNotFound, hooks.codes[0])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func writeRaw(s *store.FileStore, filename, content string) error {
	return os.WriteFile(filepath.Join(s.Dir(), filename), []byte(content), 0o644)
}
