package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// ClaudeProvider calls the Anthropic Messages API
type ClaudeProvider struct {
	client anthropic.Client
	model  string
	logger arbor.ILogger
}

// NewClaudeProvider creates a Claude provider. baseURL is optional.
func NewClaudeProvider(apiKey, baseURL, model string, logger arbor.ILogger) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // one provider call per turn
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &ClaudeProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (p *ClaudeProvider) Name() string  { return ProviderClaude }
func (p *ClaudeProvider) Model() string { return p.model }
func (p *ClaudeProvider) Close() error  { return nil }

// Complete sends one Messages API request
func (p *ClaudeProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserContent)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemInstruction},
		}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			p.logger.Error().
				Int("status_code", apiErr.StatusCode).
				Err(err).
				Msg("Claude API returned error")
			return nil, &models.UpstreamError{Provider: ProviderClaude, StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &models.UpstreamError{
			Provider: ProviderClaude,
			Code:     "malformed_response",
			Err:      fmt.Errorf("no text content in Claude response"),
		}
	}

	return &interfaces.CompletionResponse{
		Text:    text.String(),
		ModelID: string(resp.Model),
		Usage: interfaces.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
