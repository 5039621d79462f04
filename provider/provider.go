package provider

import (
	"errors"

	"github.com/civicpulse/legichat/config"
	"github.com/civicpulse/legichat/internal/chat"
	openai_provider "github.com/civicpulse/legichat/provider/openai"
)

// Kind represents different LLM providers
type Kind string

const (
	OpenAI Kind = "openai"
)

// NewLLM creates an LLM bridge from the configured provider settings.
func NewLLM(kind Kind, cfg config.LLMConfig) (chat.LLM, error) {
	switch kind {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not set")
		}
		return openai_provider.NewClient(
			cfg.APIKey,
			cfg.BaseURL,
			cfg.Model,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
