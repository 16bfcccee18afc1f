package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// maxConflictRetries bounds retries when two writers race on the same tenant key
const maxConflictRetries = 32

// SnapshotStorage keeps one WebsiteSnapshot per tenant, keyed by tenant id
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) *SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// Put replaces the tenant's snapshot in a single transaction.
// A conflicting concurrent write is retried so the later writer wins.
func (s *SnapshotStorage) Put(ctx context.Context, snapshot *models.WebsiteSnapshot) error {
	if snapshot == nil || snapshot.TenantID == "" {
		return &models.StorageError{Op: "put snapshot", Err: errors.New("snapshot requires a tenant id")}
	}

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = s.db.Store().Badger().Update(func(tx *badger.Txn) error {
			return s.db.Store().TxUpsert(tx, snapshot.TenantID, snapshot)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug().Str("tenant_id", snapshot.TenantID).Int("attempt", attempt+1).Msg("Snapshot write conflict, retrying")
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	if err != nil {
		return &models.StorageError{Op: "put snapshot", Err: err}
	}

	s.logger.Debug().
		Str("tenant_id", snapshot.TenantID).
		Int("items", len(snapshot.Items)).
		Msg("Snapshot stored")
	return nil
}

// Get returns the tenant's snapshot or models.ErrSnapshotNotFound
func (s *SnapshotStorage) Get(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
	var snapshot models.WebsiteSnapshot
	err := s.db.Store().Get(tenantID, &snapshot)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, models.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get snapshot", Err: err}
	}
	ensureItems(&snapshot)
	return &snapshot, nil
}

// List returns every stored snapshot ordered by tenant id
func (s *SnapshotStorage) List(ctx context.Context) ([]*models.WebsiteSnapshot, error) {
	var snapshots []models.WebsiteSnapshot
	if err := s.db.Store().Find(&snapshots, badgerhold.Where("TenantID").Ne("").SortBy("TenantID")); err != nil {
		return nil, &models.StorageError{Op: "list snapshots", Err: fmt.Errorf("find: %w", err)}
	}

	result := make([]*models.WebsiteSnapshot, len(snapshots))
	for i := range snapshots {
		ensureItems(&snapshots[i])
		result[i] = &snapshots[i]
	}
	return result, nil
}

// ensureItems restores an empty item list that gob decoding turned into nil,
// so an empty snapshot still serializes as "items":[]
func ensureItems(snapshot *models.WebsiteSnapshot) {
	if snapshot.Items == nil {
		snapshot.Items = []models.ContentItem{}
	}
}
