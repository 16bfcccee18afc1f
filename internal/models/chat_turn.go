package models

import "time"

// TurnRole identifies who produced a chat turn
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// TurnMetadata records provider details for an assistant turn
type TurnMetadata struct {
	ModelID          string `json:"model_id"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// ChatTurn is one message in a tenant's conversation history.
// Turns are append-only; Seq is assigned by the store and orders turns
// created within the same instant.
type ChatTurn struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id" badgerhold:"index"`
	Seq       uint64        `json:"seq"`
	Role      TurnRole      `json:"role"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Metadata  *TurnMetadata `json:"metadata,omitempty"`
}
