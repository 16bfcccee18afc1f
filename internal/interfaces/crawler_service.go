package interfaces

import (
	"context"

	"github.com/ternarybob/sitechat/internal/models"
)

// PageRenderer renders one URL in a browser engine and returns the settled DOM as HTML
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Extractor renders a page and returns its content items in document order
type Extractor interface {
	Extract(ctx context.Context, url string) ([]models.ContentItem, error)
}
