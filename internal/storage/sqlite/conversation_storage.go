package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/models"
)

// ConversationStorage is the append-only turn log in chat_turns.
// The AUTOINCREMENT seq column orders turns.
type ConversationStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewConversationStorage creates a new ConversationStorage instance
func NewConversationStorage(db *SQLiteDB, logger arbor.ILogger) *ConversationStorage {
	return &ConversationStorage{
		db:     db,
		logger: logger,
	}
}

// Append inserts a turn and records the assigned seq on it
func (s *ConversationStorage) Append(ctx context.Context, turn *models.ChatTurn) error {
	if turn == nil || turn.TenantID == "" {
		return &models.StorageError{Op: "append turn", Err: errors.New("turn requires a tenant id")}
	}
	if turn.ID == "" {
		turn.ID = common.NewTurnID()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	var metadata sql.NullString
	if turn.Metadata != nil {
		data, err := json.Marshal(turn.Metadata)
		if err != nil {
			return &models.StorageError{Op: "append turn", Err: err}
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	result, err := s.db.db.ExecContext(ctx,
		`INSERT INTO chat_turns (id, tenant_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.TenantID, string(turn.Role), turn.Content, metadata, turn.CreatedAt.UnixMilli())
	if err != nil {
		return &models.StorageError{Op: "append turn", Err: err}
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return &models.StorageError{Op: "append turn", Err: err}
	}
	turn.Seq = uint64(seq)

	s.logger.Debug().
		Str("tenant_id", turn.TenantID).
		Str("role", string(turn.Role)).
		Str("turn_id", turn.ID).
		Msg("Chat turn appended")
	return nil
}

// List returns the tenant's turns ordered by seq
func (s *ConversationStorage) List(ctx context.Context, tenantID string) ([]*models.ChatTurn, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT seq, id, tenant_id, role, content, metadata, created_at
		FROM chat_turns
		WHERE tenant_id = ?
		ORDER BY seq ASC
	`, tenantID)
	if err != nil {
		return nil, &models.StorageError{Op: "list turns", Err: err}
	}
	defer rows.Close()

	turns := []*models.ChatTurn{}
	for rows.Next() {
		var turn models.ChatTurn
		var role string
		var metadata sql.NullString
		var createdAt int64

		if err := rows.Scan(&turn.Seq, &turn.ID, &turn.TenantID, &role, &turn.Content, &metadata, &createdAt); err != nil {
			return nil, &models.StorageError{Op: "list turns", Err: err}
		}
		turn.Role = models.TurnRole(role)
		turn.CreatedAt = time.UnixMilli(createdAt).UTC()
		if metadata.Valid {
			turn.Metadata = &models.TurnMetadata{}
			if err := json.Unmarshal([]byte(metadata.String), turn.Metadata); err != nil {
				return nil, &models.StorageError{Op: "list turns", Err: err}
			}
		}
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list turns", Err: err}
	}
	return turns, nil
}

// Count returns the number of turns stored for a tenant
func (s *ConversationStorage) Count(ctx context.Context, tenantID string) (int, error) {
	var count int
	if err := s.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_turns WHERE tenant_id = ?`, tenantID).Scan(&count); err != nil {
		return 0, &models.StorageError{Op: "count turns", Err: err}
	}
	return count, nil
}
