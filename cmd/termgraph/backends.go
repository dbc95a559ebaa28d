package main

import (
	"termgraph/internal/adapter"
	"termgraph/internal/association"
	"termgraph/pkg/config"
	apperrors "termgraph/pkg/errors"
)

// buildBackends creates one adapter per provider and binds every configured model to it
func buildBackends(cfg *config.Config) ([]association.Backend, error) {
	clients := make(map[string]*adapter.ChatAdapter)
	backends := make([]association.Backend, 0, len(cfg.Models))

	for _, m := range cfg.Models {
		client, ok := clients[m.Provider]
		if !ok {
			switch m.Provider {
			case config.ProviderOpenAI:
				client = adapter.NewOpenAIAdapter(cfg.OpenAIAPIKey)
			case config.ProviderMistral:
				client = adapter.NewMistralAdapter(cfg.MistralAPIKey)
			case config.ProviderLiteLLM:
				client = adapter.NewLiteLLMAdapter(cfg.LiteLLMURL, cfg.LiteLLMAPIKey)
			default:
				return nil, apperrors.NewProviderUnknown(m.Provider)
			}
			client.SetMaxAttempts(cfg.MaxAttempts)
			clients[m.Provider] = client
		}
		backends = append(backends, association.Backend{
			Provider: m.Provider,
			Model:    m.Model,
			Client:   client,
		})
	}
	return backends, nil
}

// modelNames lists configured model ids in order
func modelNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		names = append(names, m.Model)
	}
	return names
}
