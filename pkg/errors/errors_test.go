package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseError_Message(t *testing.T) {
	err := NewStoreWriteFailed("terms/x.json", fmt.Errorf("permission denied"))
	assert.Equal(t, "[store] failed to write terms/x.json: permission denied", err.Error())
	assert.Equal(t, "[config] missing required config: MODELS", NewConfigMissingRequired("MODELS").Error())
}

func TestIsErrorType_WalksWrappedAndJoined(t *testing.T) {
	callErr := NewProviderCallFailed("openai", "gpt-4-0613", 1, true, fmt.Errorf("429"))
	wrapped := fmt.Errorf("expand %q: %w", "dog", callErr)
	joined := stderrors.Join(stderrors.New("other"), wrapped)

	assert.True(t, IsErrorType(callErr, ErrorTypeProvider))
	assert.True(t, IsErrorType(wrapped, ErrorTypeProvider))
	assert.True(t, IsErrorType(joined, ErrorTypeProvider))
	assert.False(t, IsErrorType(joined, ErrorTypeStore))
	assert.False(t, IsErrorType(nil, ErrorTypeProvider))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderCallFailed("openai", "m", 1, true, nil)))
	assert.False(t, IsRetryable(NewProviderCallFailed("openai", "m", 1, false, nil)))
	assert.True(t, IsRetryable(fmt.Errorf("sync: %w", NewGraphConnectionFailed("bolt://x", nil))))
	assert.False(t, IsRetryable(NewContextCancelled("run", context.Canceled)))
	assert.False(t, IsRetryable(NewStoreWriteFailed("x", nil)))
}
