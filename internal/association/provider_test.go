package association

import (
	"context"
	"errors"
	"testing"

	"termgraph/internal/adapter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, prompt string) (*adapter.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &adapter.Completion{Text: f.text, Raw: []byte(`{"raw":true}`)}, nil
}

type fakeRecorder struct {
	err     error
	records []string
}

func (r *fakeRecorder) Record(provider, model string, raw []byte) error {
	r.records = append(r.records, provider+"-"+model+":"+string(raw))
	return r.err
}

func TestParseTerms_FiltersLongAndColonLines(t *testing.T) {
	got := ParseTerms("cat\npuppy\nthis is a long phrase of five words\nnote: excluded\nwolf")
	assert.Equal(t, []string{"cat", "puppy", "wolf"}, got)
}

func TestParseTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"trims and lowercases", "  Golden Retriever \r\n\tWOLF", []string{"golden retriever", "wolf"}},
		{"three words kept", "man's best friend", []string{"man's best friend"}},
		{"four words dropped", "a very good boy", []string{}},
		{"blank lines dropped", "cat\n\n   \ndog", []string{"cat", "dog"}},
		{"answer header dropped", "Answer:\ncat", []string{"cat"}},
		{"double space counts as a word", "big  dog  house", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTerms(tt.text))
		})
	}
}

func TestBuildPrompt_EmbedsTerm(t *testing.T) {
	prompt := BuildPrompt("black hole")
	assert.Contains(t, prompt, "Term: black hole\nAnswer:")
	assert.Contains(t, prompt, "Give me a list of 10 terms")
	assert.NotContains(t, prompt, "{term}")
}

func TestProvider_ExpandRecordsRawResponse(t *testing.T) {
	client := &fakeCompleter{text: "Cat\nPuppy\nnote: excluded"}
	recorder := &fakeRecorder{}
	p := NewProvider(recorder)

	got, err := p.Expand(context.Background(), Backend{Provider: "openai", Model: "gpt-4-0613", Client: client}, "dog")
	require.NoError(t, err)

	assert.Equal(t, []string{"cat", "puppy"}, got)
	assert.Equal(t, []string{`openai-gpt-4-0613:{"raw":true}`}, recorder.records)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Term: dog\n")
}

func TestProvider_RecordFailureIsNotFatal(t *testing.T) {
	p := NewProvider(&fakeRecorder{err: errors.New("disk full")})

	got, err := p.Expand(context.Background(), Backend{Provider: "mistral", Model: "mistral-tiny", Client: &fakeCompleter{text: "wolf"}}, "dog")
	require.NoError(t, err)
	assert.Equal(t, []string{"wolf"}, got)
}

func TestProvider_BackendFailurePropagates(t *testing.T) {
	boom := errors.New("401 unauthorized")
	recorder := &fakeRecorder{}
	p := NewProvider(recorder)

	_, err := p.Expand(context.Background(), Backend{Provider: "openai", Model: "gpt-4-0613", Client: &fakeCompleter{err: boom}}, "dog")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, recorder.records)
}
