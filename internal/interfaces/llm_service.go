package interfaces

import "context"

// TokenUsage is the token accounting reported by the provider
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// CompletionRequest is a single-turn request to a completion provider
type CompletionRequest struct {
	SystemInstruction string
	UserContent       string
	MaxTokens         int
	Temperature       float32
}

// CompletionResponse is the normalized provider answer
type CompletionResponse struct {
	Text    string
	ModelID string
	Usage   TokenUsage
}

// CompletionProvider performs exactly one provider call per Complete.
// Implementations return *models.UpstreamError for non-2xx or malformed
// responses and must honour ctx cancellation.
type CompletionProvider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Name() string
	Model() string
	Close() error
}

// CompletionService turns an assembled prompt into an answer
type CompletionService interface {
	Complete(ctx context.Context, userContent string) (*CompletionResponse, error)
}
