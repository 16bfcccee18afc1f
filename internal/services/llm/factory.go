package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
)

// Provider names accepted in llm.provider
const (
	ProviderDeepSeek = "deepseek"
	ProviderClaude   = "claude"
	ProviderGemini   = "gemini"
)

// NewProvider builds the completion provider selected by llm.provider.
// API keys resolve env -> KV store -> config.
func NewProvider(ctx context.Context, config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (interfaces.CompletionProvider, error) {
	timeout, err := config.LLMTimeout()
	if err != nil {
		return nil, err
	}

	switch config.LLM.Provider {
	case ProviderDeepSeek:
		apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "deepseek_api_key", config.DeepSeek.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DeepSeek API key: %w", err)
		}
		logger.Info().Str("provider", ProviderDeepSeek).Str("model", config.DeepSeek.Model).Str("base_url", config.DeepSeek.BaseURL).Msg("Completion provider configured")
		// The orchestrator owns the request deadline; the client timeout is a backstop
		return NewDeepSeekProvider(newHTTPClient(timeout), config.DeepSeek.BaseURL, apiKey, config.DeepSeek.Model, logger), nil

	case ProviderClaude:
		apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "anthropic_api_key", config.Claude.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
		}
		logger.Info().Str("provider", ProviderClaude).Str("model", config.Claude.Model).Msg("Completion provider configured")
		return NewClaudeProvider(apiKey, config.Claude.BaseURL, config.Claude.Model, logger), nil

	case ProviderGemini:
		apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "gemini_api_key", config.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
		}
		logger.Info().Str("provider", ProviderGemini).Str("model", config.Gemini.Model).Msg("Completion provider configured")
		provider, err := NewGeminiProvider(ctx, apiKey, config.Gemini.Model, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", config.LLM.Provider)
	}
}
