package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"termgraph/internal/adapter"
	"termgraph/internal/graph"
	"termgraph/internal/terms"
	"termgraph/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBackends_SharesOneClientPerProvider(t *testing.T) {
	models, err := config.ParseModels(config.DefaultModels)
	require.NoError(t, err)
	c := &config.Config{Models: models, OpenAIAPIKey: "o", MistralAPIKey: "m", MaxAttempts: 2}

	backends, err := buildBackends(c)
	require.NoError(t, err)
	require.Len(t, backends, 5)

	assert.Equal(t, "mistral-tiny", backends[0].Model)
	assert.Equal(t, "gpt-4-0613", backends[4].Model)
	assert.Same(t, backends[0].Client, backends[2].Client)
	assert.Same(t, backends[3].Client, backends[4].Client)
	assert.NotSame(t, backends[0].Client, backends[3].Client)
	assert.Equal(t, "openai", backends[4].Client.(*adapter.ChatAdapter).Provider())

	assert.Equal(t, []string{"mistral-tiny", "mistral-small", "mistral-medium", "gpt-3.5-turbo-1106", "gpt-4-0613"}, modelNames(c))
}

func TestBuildBackends_UnknownProvider(t *testing.T) {
	_, err := buildBackends(&config.Config{Models: []config.ModelSpec{{Provider: "cohere", Model: "x"}}})
	assert.Error(t, err)
}

func TestExportGraph(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.json"), []byte(`{"a":["b","c"],"b":null}`), 0o644))
	store := terms.NewStore(dir, "concept")

	var buf bytes.Buffer
	require.NoError(t, exportGraph(&buf, store, "X"))
	assert.JSONEq(t, `{
		"nodes": [{"id":"a","group":1},{"id":"b","group":1}],
		"links": [{"source":"a","target":"b","value":1},{"source":"a","target":"c","value":1}]
	}`, buf.String())
}

type recordingWriter struct {
	synced  map[string]graph.Data
	deleted []string
	err     error
}

func (r *recordingWriter) SyncGraph(_ context.Context, model string, data graph.Data) error {
	if r.err != nil {
		return r.err
	}
	r.synced[model] = data
	return nil
}

func (r *recordingWriter) ListModels(_ context.Context) ([]string, error) {
	models := []string{}
	for model := range r.synced {
		models = append(models, model)
	}
	return models, r.err
}

func (r *recordingWriter) DeleteGraph(_ context.Context, model string) error {
	r.deleted = append(r.deleted, model)
	delete(r.synced, model)
	return nil
}

func TestSyncGraphs(t *testing.T) {
	dir := t.TempDir()
	store := terms.NewStore(dir, "concept")
	require.NoError(t, store.Save("a", terms.NewMap("concept")))
	require.NoError(t, store.Save("b", terms.NewMap("concept")))

	w := &recordingWriter{synced: map[string]graph.Data{}}
	require.NoError(t, syncGraphs(context.Background(), store, w, []string{"a", "b"}))
	assert.Len(t, w.synced, 2)
	assert.Equal(t, []graph.Node{{ID: "concept", Group: 1}}, w.synced["a"].Nodes)

	assert.Error(t, syncGraphs(context.Background(), store, w, []string{"missing"}))

	boom := errors.New("neo4j down")
	assert.ErrorIs(t, syncGraphs(context.Background(), store, &recordingWriter{err: boom}, []string{"a"}), boom)
}

func TestPruneGraphs_DeletesModelsWithoutStore(t *testing.T) {
	dir := t.TempDir()
	store := terms.NewStore(dir, "concept")
	require.NoError(t, store.Save("ollama/llama3", terms.NewMap("concept")))

	w := &recordingWriter{synced: map[string]graph.Data{
		"ollama/llama3": {},
		"retired-model": {},
	}}
	require.NoError(t, pruneGraphs(context.Background(), store, w))

	assert.Equal(t, []string{"retired-model"}, w.deleted)
	assert.Contains(t, w.synced, "ollama/llama3")

	boom := errors.New("neo4j down")
	assert.ErrorIs(t, pruneGraphs(context.Background(), store, &recordingWriter{err: boom}), boom)
}

func TestStartScheduler_WaitsForRunningStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	var finished bool

	wg := startScheduler(ctx, time.Millisecond, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
			return
		}
		<-release
		finished = true
	})

	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("scheduler returned while a step was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.True(t, finished)
}
