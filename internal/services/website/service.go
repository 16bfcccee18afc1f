package website

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
	"github.com/ternarybob/sitechat/internal/services/validation"
)

// Service runs the ingestion path: extract the page, then replace the tenant's snapshot
type Service struct {
	extractor interfaces.Extractor
	snapshots interfaces.SnapshotStorage
	validator *validation.Validator
	logger    arbor.ILogger
	now       func() time.Time

	writeMu sync.Mutex // Serializes snapshot writes so a refresh can compare before it replaces
}

// NewService creates a website service
func NewService(extractor interfaces.Extractor, snapshots interfaces.SnapshotStorage, logger arbor.ILogger) *Service {
	return &Service{
		extractor: extractor,
		snapshots: snapshots,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Scrape extracts url and stores the result as the tenant's snapshot.
// Any failure leaves the previously stored snapshot untouched.
func (s *Service) Scrape(ctx context.Context, tenantID, url string) (*interfaces.ScrapeResult, error) {
	input, err := s.validator.ScrapeInput(tenantID, url)
	if err != nil {
		return nil, err
	}

	items, err := s.extractor.Extract(ctx, input.URL)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("tenant_id", input.TenantID).
			Str("url", input.URL).
			Msg("Scrape failed, keeping existing snapshot")
		return nil, err
	}

	snapshot := s.newSnapshot(input.TenantID, input.URL, items)

	s.writeMu.Lock()
	err = s.snapshots.Put(ctx, snapshot)
	s.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.logger.Info().
		Str("tenant_id", input.TenantID).
		Str("url", input.URL).
		Int("item_count", len(items)).
		Msg("Website snapshot replaced")

	return &interfaces.ScrapeResult{ItemCount: len(items)}, nil
}

// Refresh re-extracts previous.SourceURL and replaces the tenant's snapshot
// only while the stored snapshot still has previous's source URL and fetch time.
// A snapshot replaced during the extraction wins and models.ErrSnapshotChanged is returned.
func (s *Service) Refresh(ctx context.Context, previous *models.WebsiteSnapshot) (*interfaces.ScrapeResult, error) {
	if previous == nil {
		return nil, &models.ValidationError{Field: "snapshot", Reason: "is required"}
	}
	input, err := s.validator.ScrapeInput(previous.TenantID, previous.SourceURL)
	if err != nil {
		return nil, err
	}

	items, err := s.extractor.Extract(ctx, input.URL)
	if err != nil {
		return nil, err
	}
	snapshot := s.newSnapshot(input.TenantID, input.URL, items)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.snapshots.Get(ctx, input.TenantID)
	if err != nil && !errors.Is(err, models.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if current == nil || current.SourceURL != previous.SourceURL || !current.FetchedAt.Equal(previous.FetchedAt) {
		s.logger.Info().
			Str("tenant_id", input.TenantID).
			Str("url", input.URL).
			Msg("Snapshot replaced during refresh, discarding refreshed content")
		return nil, models.ErrSnapshotChanged
	}

	if err := s.snapshots.Put(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return &interfaces.ScrapeResult{ItemCount: len(snapshot.Items)}, nil
}

func (s *Service) newSnapshot(tenantID, url string, items []models.ContentItem) *models.WebsiteSnapshot {
	if items == nil {
		items = []models.ContentItem{}
	}
	return &models.WebsiteSnapshot{
		TenantID:  tenantID,
		SourceURL: url,
		Items:     items,
		FetchedAt: s.now().UTC(),
	}
}

// Snapshot returns the tenant's current snapshot or models.ErrSnapshotNotFound
func (s *Service) Snapshot(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error) {
	if tenantID == "" {
		return nil, &models.ValidationError{Field: "tenant_id", Reason: "is required"}
	}
	return s.snapshots.Get(ctx, tenantID)
}
