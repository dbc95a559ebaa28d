// Package association turns one seed term into a list of related terms
// by asking an LLM backend.
package association

import (
	"context"
	"strings"

	"termgraph/internal/adapter"
	"termgraph/pkg/logger"

	"go.uber.org/zap"
)

// MaxTermWords is the longest term, in space separated words, that is kept
const MaxTermWords = 3

const promptTemplate = `Give me a list of 10 terms that relate to a given term.
The terms may be composed of 2 or 3 words but not more.
Put each term on a new line.
You do not comment on your answer or the terms you give.

EXAMPLE BEGIN
Term: dog
Answer:
cat
puppy
animal
pet
canine
wolf
EXAMPLE END

Term: {term}
Answer:`

// Backend is one model served by one provider
type Backend struct {
	Provider string
	Model    string
	Client   adapter.Completer
}

// Recorder keeps the raw response of a call
type Recorder interface {
	Record(provider, model string, raw []byte) error
}

// Provider expands terms through a backend's completer
type Provider struct {
	recorder Recorder
	logger   *zap.Logger
}

// NewProvider creates a provider. recorder may be nil.
func NewProvider(recorder Recorder) *Provider {
	return &Provider{
		recorder: recorder,
		logger:   logger.Named("association"),
	}
}

// BuildPrompt embeds term in the instruction prompt
func BuildPrompt(term string) string {
	return strings.ReplaceAll(promptTemplate, "{term}", term)
}

// Expand asks backend for terms related to term.
// Backend failures are returned unchanged; a failed call record is only logged.
func (p *Provider) Expand(ctx context.Context, backend Backend, term string) ([]string, error) {
	completion, err := backend.Client.Complete(ctx, backend.Model, BuildPrompt(term))
	if err != nil {
		return nil, err
	}

	if p.recorder != nil && completion.Raw != nil {
		if err := p.recorder.Record(backend.Provider, backend.Model, completion.Raw); err != nil {
			p.logger.Warn("Failed to record call",
				zap.String("provider", backend.Provider),
				logger.Model(backend.Model),
				zap.Error(err),
			)
		}
	}

	terms := ParseTerms(completion.Text)
	p.logger.Debug("Term expanded",
		logger.Model(backend.Model),
		zap.String("term", term),
		zap.Strings("associations", terms),
	)
	return terms, nil
}

// ParseTerms extracts terms from a completion: one per line, trimmed and
// lowercased. Empty lines, lines of more than MaxTermWords words and lines
// holding a colon are dropped.
func ParseTerms(text string) []string {
	terms := []string{}
	for _, line := range strings.Split(text, "\n") {
		term := strings.ToLower(strings.TrimSpace(line))
		if term == "" {
			continue
		}
		if len(strings.Split(term, " ")) > MaxTermWords {
			continue
		}
		// "note: ..." and similar commentary
		if strings.Contains(term, ":") {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
