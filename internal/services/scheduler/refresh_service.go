package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
	"github.com/ternarybob/sitechat/internal/services/workers"
)

// RefreshService re-scrapes every stored snapshot on a cron schedule
type RefreshService struct {
	snapshots   interfaces.SnapshotStorage
	refresher   interfaces.SnapshotRefresher
	cron        *cron.Cron
	logger      arbor.ILogger
	timeout     time.Duration
	concurrency int

	mu        sync.Mutex // Protects running
	running   bool
	refreshMu sync.Mutex // Prevents overlapping refresh runs
	ctx       context.Context
	cancel    context.CancelFunc
}

// RefreshSummary reports the outcome of one refresh run
type RefreshSummary struct {
	Refreshed int
	Failed    int
	Skipped   int // Snapshot was replaced while its refresh was running
}

// NewRefreshService creates a refresh service. timeout bounds each tenant's
// scrape; concurrency bounds how many tenants refresh at once.
func NewRefreshService(snapshots interfaces.SnapshotStorage, refresher interfaces.SnapshotRefresher, timeout time.Duration, concurrency int, logger arbor.ILogger) *RefreshService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshService{
		snapshots:   snapshots,
		refresher:   refresher,
		cron:        cron.New(),
		logger:      logger,
		timeout:     timeout,
		concurrency: concurrency,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start registers the refresh job with the given cron expression and starts the scheduler
func (s *RefreshService) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		return fmt.Errorf("refresh schedule is empty")
	}

	if _, err := s.cron.AddFunc(cronExpr, s.runScheduledRefresh); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("cron_expr", cronExpr).Msg("Snapshot refresh scheduler started")
	return nil
}

// Stop halts the scheduler and waits for an in-flight refresh to finish
func (s *RefreshService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the cron scheduler is active
func (s *RefreshService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RefreshService) runScheduledRefresh() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Recovered from panic in snapshot refresh")
		}
	}()

	if _, err := s.Refresh(s.ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled snapshot refresh failed")
	}
}

// Refresh re-scrapes every stored snapshot's source URL, up to concurrency
// tenants at a time. Per-tenant failures are logged and counted; the failed
// tenant keeps its previous snapshot.
func (s *RefreshService) Refresh(ctx context.Context) (*RefreshSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.refreshMu.TryLock() {
		s.logger.Debug().Msg("Snapshot refresh already in progress, skipping")
		return &RefreshSummary{}, nil
	}
	defer s.refreshMu.Unlock()

	snapshots, err := s.snapshots.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	startTime := time.Now()
	var refreshed, failed, skipped atomic.Int32

	pool := workers.NewPool(ctx, s.concurrency, s.logger)
	pool.Start()
	for _, snapshot := range snapshots {
		submitErr := pool.Submit(workers.Job{
			Name: snapshot.TenantID,
			Run: func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := s.refreshTenant(ctx, snapshot)
				if errors.Is(err, models.ErrSnapshotChanged) {
					skipped.Add(1)
					return nil
				}
				if err != nil {
					failed.Add(1)
					return err
				}
				refreshed.Add(1)
				return nil
			},
		})
		if submitErr != nil {
			break
		}
	}
	// Per-tenant errors are already logged in refreshTenant
	_ = pool.Wait()

	summary := &RefreshSummary{
		Refreshed: int(refreshed.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}

	s.logger.Info().
		Int("refreshed", summary.Refreshed).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("duration", time.Since(startTime)).
		Msg("Snapshot refresh completed")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *RefreshService) refreshTenant(ctx context.Context, snapshot *models.WebsiteSnapshot) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.refresher.Refresh(ctx, snapshot)
	if errors.Is(err, models.ErrSnapshotChanged) {
		return err
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("tenant_id", snapshot.TenantID).
			Str("url", snapshot.SourceURL).
			Msg("Snapshot refresh failed")
		return err
	}

	s.logger.Debug().
		Str("tenant_id", snapshot.TenantID).
		Int("item_count", result.ItemCount).
		Msg("Snapshot refreshed")
	return nil
}
