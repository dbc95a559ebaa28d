package calls

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WritesIntoTimestampedBatch(t *testing.T) {
	dir := t.TempDir()
	started := time.UnixMilli(1700000000123)
	rec := NewRecorder(dir, started)

	assert.Equal(t, filepath.Join(dir, "1700000000123"), rec.BatchDir())

	raw := []byte(`{"choices":[{"message":{"content":"cat"}}]}`)
	require.NoError(t, rec.Record("openai", "gpt-4-0613", raw))
	require.NoError(t, rec.Record("litellm", "openrouter/mistral", raw))

	got, err := os.ReadFile(filepath.Join(rec.BatchDir(), "openai-gpt-4-0613.json"))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = os.Stat(filepath.Join(rec.BatchDir(), "litellm-openrouter_mistral.json"))
	assert.NoError(t, err)
}

func TestRecorder_FailsWhenBatchCannotBeCreated(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "calls")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	rec := NewRecorder(blocker, time.Now())
	assert.Error(t, rec.Record("openai", "gpt-4-0613", []byte("{}")))
}
