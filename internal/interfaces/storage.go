package interfaces

import (
	"context"

	"github.com/ternarybob/sitechat/internal/models"
)

// SnapshotStorage holds exactly one website snapshot per tenant
type SnapshotStorage interface {
	// Put atomically replaces the tenant's snapshot. Concurrent puts for the
	// same tenant are last-write-wins; items are never merged.
	Put(ctx context.Context, snapshot *models.WebsiteSnapshot) error

	// Get returns the tenant's snapshot or models.ErrSnapshotNotFound
	Get(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error)

	// List returns every stored snapshot
	List(ctx context.Context) ([]*models.WebsiteSnapshot, error)
}

// ConversationStorage is the append-only log of chat turns
type ConversationStorage interface {
	// Append stores a new turn, assigning ID, Seq and CreatedAt when unset
	Append(ctx context.Context, turn *models.ChatTurn) error

	// List returns the tenant's turns in creation order
	List(ctx context.Context, tenantID string) ([]*models.ChatTurn, error)

	// Count returns the number of turns stored for a tenant
	Count(ctx context.Context, tenantID string) (int, error)
}

// StorageManager groups the storage backends behind one connection
type StorageManager interface {
	SnapshotStorage() SnapshotStorage
	ConversationStorage() ConversationStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
