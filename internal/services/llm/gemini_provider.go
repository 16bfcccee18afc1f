package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
	"google.golang.org/genai"
)

// geminiStatusRegex pulls the HTTP status out of "Error 429, Message: ..., Status: RESOURCE_EXHAUSTED"
// for errors that reach us without a genai.APIError in their chain
var geminiStatusRegex = regexp.MustCompile(`Error (\d{3}),.*?Status: ([A-Z_]+)`)

// GeminiProvider calls the Gemini generateContent API
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger arbor.ILogger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.model }
func (p *GeminiProvider) Close() error  { return nil }

// Complete sends one generateContent request
func (p *GeminiProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.UserContent, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		upstream := geminiUpstreamError(err)
		p.logger.Error().Int("status_code", upstream.StatusCode).Err(err).Msg("Gemini API returned error")
		return nil, upstream
	}

	text := resp.Text()
	if text == "" {
		return nil, &models.UpstreamError{
			Provider: ProviderGemini,
			Code:     "malformed_response",
			Err:      fmt.Errorf("no text content in Gemini response"),
		}
	}

	result := &interfaces.CompletionResponse{
		Text:    text,
		ModelID: resp.ModelVersion,
	}
	if result.ModelID == "" {
		result.ModelID = p.model
	}
	if resp.UsageMetadata != nil {
		result.Usage = interfaces.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return result, nil
}

// geminiUpstreamError wraps a genai error, keeping the HTTP status and status name
func geminiUpstreamError(err error) *models.UpstreamError {
	upstream := &models.UpstreamError{Provider: ProviderGemini, Err: err}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		upstream.StatusCode, upstream.Code = apiErr.Code, apiErr.Status
		return upstream
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		upstream.StatusCode, upstream.Code = apiErrPtr.Code, apiErrPtr.Status
		return upstream
	}

	if m := geminiStatusRegex.FindStringSubmatch(err.Error()); len(m) == 3 {
		upstream.StatusCode, _ = strconv.Atoi(m[1])
		upstream.Code = m[2]
	}
	return upstream
}
