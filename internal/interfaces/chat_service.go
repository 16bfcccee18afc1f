package interfaces

import (
	"context"

	"github.com/ternarybob/sitechat/internal/models"
)

// ScrapeResult is returned by a successful scrape
type ScrapeResult struct {
	ItemCount int `json:"item_count"`
}

// WebsiteService runs the ingestion path for a tenant
type WebsiteService interface {
	Scrape(ctx context.Context, tenantID, url string) (*ScrapeResult, error)
	Snapshot(ctx context.Context, tenantID string) (*models.WebsiteSnapshot, error)
}

// SnapshotRefresher re-scrapes a stored snapshot's source URL and writes the
// result only if the stored snapshot still matches previous
type SnapshotRefresher interface {
	Refresh(ctx context.Context, previous *models.WebsiteSnapshot) (*ScrapeResult, error)
}

// ChatResult is returned by a successful chat turn
type ChatResult struct {
	Answer  string `json:"answer"`
	ModelID string `json:"model_id"`
}

// ChatService runs the grounded chat path for a tenant
type ChatService interface {
	Chat(ctx context.Context, tenantID, message string) (*ChatResult, error)
	History(ctx context.Context, tenantID string) ([]*models.ChatTurn, error)
}
