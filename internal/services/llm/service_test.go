package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// mockProvider implements interfaces.CompletionProvider for tests
type mockProvider struct {
	CompleteFunc func(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error)
	lastRequest  *interfaces.CompletionRequest
	calls        int
}

func (m *mockProvider) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	m.calls++
	m.lastRequest = req
	return m.CompleteFunc(ctx, req)
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock-model" }
func (m *mockProvider) Close() error  { return nil }

func TestService_Complete(t *testing.T) {
	provider := &mockProvider{CompleteFunc: func(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return &interfaces.CompletionResponse{Text: "answer", Usage: interfaces.TokenUsage{PromptTokens: 3, CompletionTokens: 1}}, nil
	}}
	service := NewService(provider, 500, 0.7, time.Second, arbor.NewLogger())

	resp, err := service.Complete(context.Background(), "assembled prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Text)
	assert.Equal(t, "mock-model", resp.ModelID, "falls back to the configured model")

	require.NotNil(t, provider.lastRequest)
	assert.Equal(t, SystemInstruction, provider.lastRequest.SystemInstruction)
	assert.Equal(t, "assembled prompt", provider.lastRequest.UserContent)
	assert.Equal(t, 500, provider.lastRequest.MaxTokens)
	assert.InDelta(t, 0.7, provider.lastRequest.Temperature, 0.0001)
}

func TestService_CompleteTimeout(t *testing.T) {
	provider := &mockProvider{CompleteFunc: func(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	service := NewService(provider, 500, 0.7, 20*time.Millisecond, arbor.NewLogger())

	_, err := service.Complete(context.Background(), "prompt")
	var timeoutErr *models.UpstreamTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "mock", timeoutErr.Provider)
	assert.Equal(t, 1, provider.calls, "no retries")
}

func TestService_CompleteCallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &mockProvider{CompleteFunc: func(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	service := NewService(provider, 500, 0.7, time.Second, arbor.NewLogger())

	_, err := service.Complete(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	var upstream *models.UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestService_CompleteErrorNormalization(t *testing.T) {
	tests := []struct {
		name       string
		resp       *interfaces.CompletionResponse
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "upstream error passes through",
			err:        &models.UpstreamError{Provider: "mock", StatusCode: 500},
			wantStatus: 500,
		},
		{
			name: "transport error is wrapped",
			err:  errors.New("connection refused"),
		},
		{
			name:     "empty text",
			resp:     &interfaces.CompletionResponse{Text: ""},
			wantCode: "malformed_response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{CompleteFunc: func(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
				return tt.resp, tt.err
			}}
			service := NewService(provider, 500, 0.7, time.Second, arbor.NewLogger())

			_, err := service.Complete(context.Background(), "prompt")
			var upstream *models.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, "mock", upstream.Provider)
			assert.Equal(t, tt.wantStatus, upstream.StatusCode)
			assert.Equal(t, tt.wantCode, upstream.Code)
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("SITECHAT_DEEPSEEK_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("SITECHAT_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	config := common.NewDefaultConfig()
	_, err := NewProvider(context.Background(), config, nil, arbor.NewLogger())
	assert.Error(t, err, "missing key is reported")

	config.DeepSeek.APIKey = "sk-config"
	provider, err := NewProvider(context.Background(), config, nil, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderDeepSeek, provider.Name())
	assert.Equal(t, "deepseek-chat", provider.Model())

	config.LLM.Provider = ProviderClaude
	config.Claude.APIKey = "sk-ant"
	provider, err = NewProvider(context.Background(), config, nil, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderClaude, provider.Name())
}
