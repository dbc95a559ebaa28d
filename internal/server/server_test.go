package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"termgraph/internal/graph"
	"termgraph/internal/metrics"
	"termgraph/internal/terms"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMirror struct {
	data graph.Data
	err  error
}

func (f *fakeMirror) FetchGraph(_ context.Context, _ string) (graph.Data, error) {
	return f.data, f.err
}

func newTestServer(t *testing.T, configured ...string) (*Server, *terms.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := terms.NewStore(filepath.Join(t.TempDir(), "terms"), "concept")
	reg := prometheus.NewRegistry()
	return New(store, configured, metrics.New(reg), reg), store
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Router(), "GET", "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestModelsEndpoint_MergesConfiguredAndStored(t *testing.T) {
	s, store := newTestServer(t, "mistral-tiny", "gpt-4-0613")
	require.NoError(t, store.Save("gpt-4-0613", terms.NewMap("concept")))
	require.NoError(t, store.Save("old-model", terms.NewMap("concept")))

	w := do(t, s.Router(), "GET", "/api/models")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Models []string `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"mistral-tiny", "gpt-4-0613", "old-model"}, response.Models)
}

func TestGraphEndpoint_ProjectsStore(t *testing.T) {
	s, store := newTestServer(t, "X")
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "X.json"), []byte(`{"a":["b","c"],"b":null}`), 0o644))

	w := do(t, s.Router(), "GET", "/api/graph/X")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"nodes": [{"id":"a","group":1},{"id":"b","group":1}],
		"links": [{"source":"a","target":"b","value":1},{"source":"a","target":"c","value":1}]
	}`, w.Body.String())

	w = do(t, s.Router(), "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `termgraph_frontier_terms{model="X"} 1`)
}

func TestGraphEndpoint_ConfiguredModelWithoutFileIsSeeded(t *testing.T) {
	s, _ := newTestServer(t, "fresh")

	w := do(t, s.Router(), "GET", "/api/graph/fresh")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nodes":[{"id":"concept","group":1}],"links":[]}`, w.Body.String())
}

func TestGraphEndpoint_GatewayModelId(t *testing.T) {
	s, store := newTestServer(t, "ollama/llama3")
	m := terms.NewMap("concept")
	_, err := m.Expand("concept", []string{"idea"})
	require.NoError(t, err)
	require.NoError(t, store.Save("ollama/llama3", m))

	w := do(t, s.Router(), "GET", "/api/graph/ollama%2Fllama3")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"nodes": [{"id":"concept","group":1},{"id":"idea","group":1}],
		"links": [{"source":"concept","target":"idea","value":1}]
	}`, w.Body.String())

	w = do(t, s.Router(), "GET", "/api/models")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"models":["ollama/llama3"]}`, w.Body.String())
}

func TestGraphEndpoint_UnknownModel(t *testing.T) {
	s, _ := newTestServer(t, "X")

	w := do(t, s.Router(), "GET", "/api/graph/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGraphEndpoint_Neo4jSource(t *testing.T) {
	s, _ := newTestServer(t, "X")

	w := do(t, s.Router(), "GET", "/api/graph/X?source=neo4j")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.SetMirror(&fakeMirror{data: graph.Data{Nodes: []graph.Node{{ID: "m", Group: 1}}, Links: []graph.Link{}}})
	w = do(t, s.Router(), "GET", "/api/graph/X?source=neo4j")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nodes":[{"id":"m","group":1}],"links":[]}`, w.Body.String())

	s.SetMirror(&fakeMirror{err: errors.New("down")})
	w = do(t, s.Router(), "GET", "/api/graph/X?source=neo4j")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRenderOptionsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s.Router(), "GET", "/api/render-options")
	require.Equal(t, http.StatusOK, w.Code)

	var opts graph.RenderOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, graph.DefaultRenderOptions(), opts)
}

func TestIndexServesPage(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s.Router(), "GET", "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "forceSimulation")
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s.Router(), "OPTIONS", "/api/models")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
