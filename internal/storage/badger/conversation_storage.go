package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// turnSequenceKey names the badger sequence that orders chat turns
var turnSequenceKey = []byte("_seq:chat_turns")

// ConversationStorage is the append-only turn log backed by badgerhold
type ConversationStorage struct {
	db     *BadgerDB
	seq    *badger.Sequence
	logger arbor.ILogger
}

// NewConversationStorage creates a ConversationStorage and leases the turn sequence
func NewConversationStorage(db *BadgerDB, logger arbor.ILogger) (*ConversationStorage, error) {
	seq, err := db.Store().Badger().GetSequence(turnSequenceKey, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to open turn sequence: %w", err)
	}
	return &ConversationStorage{
		db:     db,
		seq:    seq,
		logger: logger,
	}, nil
}

// Append stores a turn. ID, CreatedAt and Seq are filled in when missing;
// Seq is always assigned here so turns never share an ordering key.
func (s *ConversationStorage) Append(ctx context.Context, turn *models.ChatTurn) error {
	if turn == nil || turn.TenantID == "" {
		return &models.StorageError{Op: "append turn", Err: errors.New("turn requires a tenant id")}
	}

	next, err := s.seq.Next()
	if err != nil {
		return &models.StorageError{Op: "append turn", Err: fmt.Errorf("next sequence: %w", err)}
	}
	// Badger sequences start at zero; keep zero meaning "unassigned"
	turn.Seq = next + 1

	if turn.ID == "" {
		turn.ID = common.NewTurnID()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(turn.ID, turn); err != nil {
		return &models.StorageError{Op: "append turn", Err: err}
	}

	s.logger.Debug().
		Str("tenant_id", turn.TenantID).
		Str("role", string(turn.Role)).
		Str("turn_id", turn.ID).
		Msg("Chat turn appended")
	return nil
}

// List returns the tenant's turns ordered by sequence
func (s *ConversationStorage) List(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
	var turns []models.ChatTurn
	query := badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID").SortBy("Seq")
	if err := s.db.Store().Find(&turns, query); err != nil {
		return nil, &models.StorageError{Op: "list turns", Err: err}
	}

	result := make([]*models.ChatTurn, len(turns))
	for i := range turns {
		result[i] = &turns[i]
	}
	return result, nil
}

// Count returns the number of turns stored for a tenant
func (s *ConversationStorage) Count(ctx context.Context, tenantID string) (int, error) {
	count, err := s.db.Store().Count(&models.ChatTurn{}, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID"))
	if err != nil {
		return 0, &models.StorageError{Op: "count turns", Err: err}
	}
	return int(count), nil
}

func (s *ConversationStorage) release() error {
	if s.seq == nil {
		return nil
	}
	return s.seq.Release()
}
