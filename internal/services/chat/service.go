package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
	"github.com/ternarybob/sitechat/internal/services/prompt"
	"github.com/ternarybob/sitechat/internal/services/validation"
)

// Service answers tenant questions grounded in the tenant's website snapshot
type Service struct {
	snapshots     interfaces.SnapshotStorage
	conversations interfaces.ConversationStorage
	assembler     *prompt.Assembler
	completion    interfaces.CompletionService
	validator     *validation.Validator
	logger        arbor.ILogger
}

// NewService creates a chat service
func NewService(
	snapshots interfaces.SnapshotStorage,
	conversations interfaces.ConversationStorage,
	assembler *prompt.Assembler,
	completion interfaces.CompletionService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		snapshots:     snapshots,
		conversations: conversations,
		assembler:     assembler,
		completion:    completion,
		validator:     validation.New(),
		logger:        logger,
	}
}

// Chat loads the tenant's snapshot and builds the context, records the user turn,
// then asks the provider and records the answer. A snapshot load failure records
// nothing; a failed or abandoned call leaves only the user turn.
func (s *Service) Chat(ctx context.Context, tenantID, message string) (*interfaces.ChatResult, error) {
	input, err := s.validator.ChatInput(tenantID, message)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshots.Get(ctx, input.TenantID)
	if err != nil {
		if !errors.Is(err, models.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("failed to load snapshot: %w", err)
		}
		snapshot = nil
	}

	assembled := s.assembler.Assemble(snapshot, input.Message)

	userTurn := &models.ChatTurn{
		ID:        common.NewTurnID(),
		TenantID:  input.TenantID,
		Role:      models.TurnRoleUser,
		Content:   input.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.conversations.Append(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("failed to record user turn: %w", err)
	}

	startTime := time.Now()
	resp, err := s.completion.Complete(ctx, assembled.Prompt)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("tenant_id", input.TenantID).
			Dur("duration", time.Since(startTime)).
			Msg("Completion failed")
		return nil, err
	}

	// The caller may have gone away while the provider was answering
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Debug().Str("tenant_id", input.TenantID).Msg("Caller abandoned chat, answer discarded")
		return nil, ctxErr
	}

	assistantTurn := &models.ChatTurn{
		ID:        common.NewTurnID(),
		TenantID:  input.TenantID,
		Role:      models.TurnRoleAssistant,
		Content:   resp.Text,
		CreatedAt: time.Now().UTC(),
		Metadata: &models.TurnMetadata{
			ModelID:          resp.ModelID,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}
	if err := s.conversations.Append(ctx, assistantTurn); err != nil {
		return nil, fmt.Errorf("failed to record assistant turn: %w", err)
	}

	s.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("model", resp.ModelID).
		Int("items_in_context", assembled.ItemsKept).
		Int("items_dropped", assembled.ItemsDropped).
		Dur("duration", time.Since(startTime)).
		Msg("Chat answered")

	return &interfaces.ChatResult{
		Answer:  resp.Text,
		ModelID: resp.ModelID,
	}, nil
}

// History returns the tenant's turns in creation order
func (s *Service) History(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
	if tenantID == "" {
		return nil, &models.ValidationError{Field: "tenant_id", Reason: "is required"}
	}
	return s.conversations.List(ctx, tenantID)
}
