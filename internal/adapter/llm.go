package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "termgraph/pkg/errors"
	"termgraph/pkg/logger"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// MistralBaseURL is Mistral's OpenAI-compatible endpoint
const MistralBaseURL = "https://api.mistral.ai/v1"

// Completion is the text of a completion plus the raw response body
type Completion struct {
	Text string
	Raw  []byte
}

// Completer generates a free-text completion for a prompt
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (*Completion, error)
}

// ChatAdapter is a Completer backed by an OpenAI-compatible chat completions API
type ChatAdapter struct {
	client      *openai.Client
	provider    string
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewChatAdapter creates an adapter for any OpenAI-compatible endpoint.
// An empty baseURL keeps the client's default (api.openai.com).
func NewChatAdapter(provider, baseURL, apiKey string) *ChatAdapter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &ChatAdapter{
		client:      openai.NewClientWithConfig(config),
		provider:    provider,
		maxAttempts: 1,
		backoff:     time.Second,
		logger:      logger.Named("adapter").With(zap.String("provider", provider)),
	}
}

// NewOpenAIAdapter creates an adapter for the OpenAI API
func NewOpenAIAdapter(apiKey string) *ChatAdapter {
	return NewChatAdapter("openai", "", apiKey)
}

// NewMistralAdapter creates an adapter for the Mistral API
func NewMistralAdapter(apiKey string) *ChatAdapter {
	return NewChatAdapter("mistral", MistralBaseURL, apiKey)
}

// NewLiteLLMAdapter creates an adapter for a LiteLLM proxy
func NewLiteLLMAdapter(baseURL, apiKey string) *ChatAdapter {
	// LiteLLM accepts any key when none is configured
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	return NewChatAdapter("litellm", strings.TrimSuffix(baseURL, "/")+"/v1", apiKey)
}

// Provider returns the provider name the adapter was created for
func (a *ChatAdapter) Provider() string {
	return a.provider
}

// SetMaxAttempts sets how many times a failed request is tried. Values below 1 mean 1.
func (a *ChatAdapter) SetMaxAttempts(n int) {
	if n < 1 {
		n = 1
	}
	a.maxAttempts = n
}

// Complete sends prompt as a single user message and returns the first choice
func (a *ChatAdapter) Complete(ctx context.Context, model, prompt string) (*Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	var resp openai.ChatCompletionResponse
	var err error
	attempts := 0
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * a.backoff
			a.logger.Warn("Retrying completion request",
				logger.Model(model),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, apperrors.NewContextCancelled("completion backoff", ctx.Err())
			case <-time.After(backoff):
			}
		}

		attempts++
		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}

		a.logger.Error("Completion request failed",
			zap.Error(err),
			logger.Model(model),
			zap.Int("attempt", attempt+1),
		)

		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	if err != nil {
		return nil, apperrors.NewProviderCallFailed(a.provider, model, attempts, retryable(err), err)
	}

	if len(resp.Choices) == 0 {
		return nil, apperrors.NewProviderCallFailed(a.provider, model, attempts, false, apperrors.ErrProviderNoChoices)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		// the text is still usable; the raw record is best effort
		a.logger.Warn("Failed to encode raw completion", zap.Error(err))
		raw = nil
	}

	completion := &Completion{
		Text: resp.Choices[0].Message.Content,
		Raw:  raw,
	}

	a.logger.Debug("Completion generated",
		logger.Model(model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return completion, nil
}

// retryable reports whether a failed request may succeed when repeated:
// rate limits, server errors and transport failures.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
