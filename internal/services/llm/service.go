package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// SystemInstruction is sent with every completion request
const SystemInstruction = "You are a helpful AI assistant that answers questions based on the provided website content. Keep your responses concise and relevant."

// Service is the completion orchestrator: one provider call per turn with
// fixed generation parameters and a request deadline.
type Service struct {
	provider    interfaces.CompletionProvider
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      arbor.ILogger
}

// NewService creates a completion orchestrator over provider
func NewService(provider interfaces.CompletionProvider, maxTokens int, temperature float32, timeout time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}
}

// Complete sends userContent to the provider. There are no retries.
// Errors are *models.UpstreamError, *models.UpstreamTimeoutError or the caller's context error.
func (s *Service) Complete(ctx context.Context, userContent string) (*interfaces.CompletionResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &interfaces.CompletionRequest{
		SystemInstruction: SystemInstruction,
		UserContent:       userContent,
		MaxTokens:         s.maxTokens,
		Temperature:       s.temperature,
	}

	startTime := time.Now()
	resp, err := s.provider.Complete(reqCtx, req)
	duration := time.Since(startTime)

	if err != nil {
		err = s.normalizeError(ctx, reqCtx, err)
		s.logger.Warn().
			Err(err).
			Str("provider", s.provider.Name()).
			Dur("duration", duration).
			Msg("Completion failed")
		return nil, err
	}

	if resp == nil || resp.Text == "" {
		return nil, &models.UpstreamError{
			Provider: s.provider.Name(),
			Code:     "malformed_response",
			Err:      errors.New("empty completion text"),
		}
	}
	if resp.ModelID == "" {
		resp.ModelID = s.provider.Model()
	}

	s.logger.Info().
		Str("provider", s.provider.Name()).
		Str("model", resp.ModelID).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("duration", duration).
		Msg("Completion received")

	return resp, nil
}

func (s *Service) normalizeError(callerCtx, reqCtx context.Context, err error) error {
	if callerErr := callerCtx.Err(); callerErr != nil {
		return callerErr
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &models.UpstreamTimeoutError{Provider: s.provider.Name(), Timeout: s.timeout, Err: err}
	}

	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	// Transport failures (DNS, connection reset) have no status
	return &models.UpstreamError{Provider: s.provider.Name(), Err: err}
}
