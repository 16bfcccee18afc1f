package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// maxErrorBody caps how much of an error response is kept for logging
const maxErrorBody = 2048

// chatMessage is one message in an OpenAI-compatible chat completions request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// DeepSeekProvider calls any OpenAI-compatible /chat/completions endpoint.
// DeepSeek is the default deployment.
type DeepSeekProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  arbor.ILogger
}

// NewDeepSeekProvider creates a provider for baseURL (e.g. https://api.deepseek.com/v1)
func NewDeepSeekProvider(client *http.Client, baseURL, apiKey, model string, logger arbor.ILogger) *DeepSeekProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &DeepSeekProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		logger:  logger,
	}
}

func (p *DeepSeekProvider) Name() string  { return ProviderDeepSeek }
func (p *DeepSeekProvider) Model() string { return p.model }
func (p *DeepSeekProvider) Close() error  { return nil }

// Complete sends a single non-streaming chat completion request
func (p *DeepSeekProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	reqBody := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemInstruction},
			{Role: "user", Content: req.UserContent},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstream := &models.UpstreamError{Provider: ProviderDeepSeek, StatusCode: resp.StatusCode}

		var errResp chatErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			upstream.Code = errorCode(errResp.Error.Code, errResp.Error.Type)
			upstream.Err = fmt.Errorf("%s", errResp.Error.Message)
		} else {
			upstream.Err = fmt.Errorf("%s", strings.TrimSpace(string(body)))
		}

		p.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("code", upstream.Code).
			Str("response", string(body)).
			Msg("Chat completions endpoint returned error")
		return nil, upstream
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return nil, &models.UpstreamError{
			Provider:   ProviderDeepSeek,
			StatusCode: resp.StatusCode,
			Code:       "malformed_response",
			Err:        fmt.Errorf("failed to parse chat JSON: %w", err),
		}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &models.UpstreamError{
			Provider:   ProviderDeepSeek,
			StatusCode: resp.StatusCode,
			Code:       "malformed_response",
			Err:        fmt.Errorf("no choices in chat response"),
		}
	}

	modelID := chatResp.Model
	if modelID == "" {
		modelID = p.model
	}

	return &interfaces.CompletionResponse{
		Text:    chatResp.Choices[0].Message.Content,
		ModelID: modelID,
		Usage: interfaces.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
		},
	}, nil
}

// errorCode picks the most specific code from an OpenAI-style error body
func errorCode(code any, errType string) string {
	switch c := code.(type) {
	case string:
		if c != "" {
			return c
		}
	case float64:
		return fmt.Sprintf("%d", int(c))
	}
	return errType
}
