package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/interfaces"
	"github.com/ternarybob/sitechat/internal/models"
)

// Service is the extractor: it renders one URL and returns its content items
type Service struct {
	renderer interfaces.PageRenderer
	logger   arbor.ILogger
}

// NewService creates an extractor over the given renderer
func NewService(renderer interfaces.PageRenderer, logger arbor.ILogger) *Service {
	return &Service{
		renderer: renderer,
		logger:   logger,
	}
}

// NewRenderer builds the browser pool selected by crawler.engine
func NewRenderer(config *common.CrawlerConfig, logger arbor.ILogger) (*BrowserPool, error) {
	switch config.Engine {
	case "", "chromedp":
		return NewChromeDPRenderer(config, logger), nil
	case "rod":
		return NewRodRenderer(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported crawler engine: %s", config.Engine)
	}
}

// Extract validates rawURL, renders it and parses the settled DOM.
// Errors are *models.InvalidURLError, *models.NavigationTimeoutError,
// *models.RenderError or the caller's context error.
func (s *Service) Extract(ctx context.Context, rawURL string) ([]models.ContentItem, error) {
	target, err := common.ValidateWebsiteURL(rawURL)
	if err != nil {
		return nil, &models.InvalidURLError{URL: rawURL, Reason: err.Error()}
	}

	startTime := time.Now()
	html, err := s.renderer.Render(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var timeoutErr *models.NavigationTimeoutError
		if errors.As(err, &timeoutErr) {
			s.logger.Warn().Str("url", target).Dur("timeout", timeoutErr.Timeout).Msg("Page did not settle in time")
			return nil, timeoutErr
		}

		s.logger.Warn().Err(err).Str("url", target).Msg("Page render failed")
		return nil, &models.RenderError{URL: target, Err: err}
	}

	items, err := ParseContentItems(html)
	if err != nil {
		return nil, &models.RenderError{URL: target, Err: err}
	}

	s.logger.Info().
		Str("url", target).
		Int("items", len(items)).
		Dur("duration", time.Since(startTime)).
		Msg("Extracted website content")

	return items, nil
}
