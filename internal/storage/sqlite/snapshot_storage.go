package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/models"
)

// SnapshotStorage stores one row per tenant in website_snapshots
type SnapshotStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *SQLiteDB, logger arbor.ILogger) *SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// Put replaces the tenant's row in one statement
func (s *SnapshotStorage) Put(ctx context.Context, snapshot *models.WebsiteSnapshot) error {
	if snapshot == nil || snapshot.TenantID == "" {
		return &models.StorageError{Op: "put snapshot", Err: errors.New("snapshot requires a tenant id")}
	}

	items := snapshot.Items
	if items == nil {
		items = []models.ContentItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return &models.StorageError{Op: "put snapshot", Err: err}
	}

	query := `
		INSERT INTO website_snapshots (tenant_id, source_url, items, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			source_url = excluded.source_url,
			items = excluded.items,
			fetched_at = excluded.fetched_at
	`
	if _, err := s.db.db.ExecContext(ctx, query,
		snapshot.TenantID, snapshot.SourceURL, string(itemsJSON), snapshot.FetchedAt.UnixMilli()); err != nil {
		return &models.StorageError{Op: "put snapshot", Err: err}
	}

	s.logger.Debug().
		Str("tenant_id", snapshot.TenantID).
		Int("items", len(items)).
		Msg("Snapshot stored")
	return nil
}

// Get returns the tenant's snapshot or models.ErrSnapshotNotFound
func (s *SnapshotStorage) Get(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
	row := s.db.db.QueryRowContext(ctx,
		`SELECT tenant_id, source_url, items, fetched_at FROM website_snapshots WHERE tenant_id = ?`, tenantID)

	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get snapshot", Err: err}
	}
	return snapshot, nil
}

// List returns every stored snapshot ordered by tenant id
func (s *SnapshotStorage) List(ctx context.Context) ([]*models.WebsiteSnapshot, error) {
	rows, err := s.db.db.QueryContext(ctx,
		`SELECT tenant_id, source_url, items, fetched_at FROM website_snapshots ORDER BY tenant_id`)
	if err != nil {
		return nil, &models.StorageError{Op: "list snapshots", Err: err}
	}
	defer rows.Close()

	snapshots := []*models.WebsiteSnapshot{}
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, &models.StorageError{Op: "list snapshots", Err: err}
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list snapshots", Err: err}
	}
	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.WebsiteSnapshot, error) {
	var snapshot models.WebsiteSnapshot
	var itemsJSON string
	var fetchedAt int64

	if err := row.Scan(&snapshot.TenantID, &snapshot.SourceURL, &itemsJSON, &fetchedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &snapshot.Items); err != nil {
		return nil, err
	}
	snapshot.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	return &snapshot, nil
}
