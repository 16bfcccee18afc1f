package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Render after Close
var ErrPoolClosed = errors.New("browser pool closed")

// browserEngine is one launched browser process. renderPage opens a fresh tab,
// navigates, waits for the network to settle and returns the DOM as HTML.
// The tab must be closed before renderPage returns.
type browserEngine interface {
	renderPage(ctx context.Context, url string) (string, error)
	close() error
}

// engineLauncher starts a new browser process
type engineLauncher func(ctx context.Context) (browserEngine, error)

// BrowserPool bounds concurrent page renders across all tenants.
// Browsers are launched lazily, reused between renders and relaunched after a failure.
type BrowserPool struct {
	name              string
	launch            engineLauncher
	sem               *semaphore.Weighted
	navigationTimeout time.Duration
	logger            arbor.ILogger

	mu     sync.Mutex
	idle   []browserEngine
	live   map[browserEngine]struct{}
	closed bool
}

func newBrowserPool(name string, launch engineLauncher, maxInstances int, navigationTimeout time.Duration, logger arbor.ILogger) *BrowserPool {
	if maxInstances <= 0 {
		maxInstances = 1
	}
	return &BrowserPool{
		name:              name,
		launch:            launch,
		sem:               semaphore.NewWeighted(int64(maxInstances)),
		navigationTimeout: navigationTimeout,
		logger:            logger,
		live:              make(map[browserEngine]struct{}),
	}
}

// Render waits for a free browser, then renders url within the navigation timeout.
// Waiting for a slot is bounded by ctx only.
func (p *BrowserPool) Render(ctx context.Context, url string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	engine, err := p.take(ctx)
	if err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, p.navigationTimeout)
	defer cancel()

	startTime := time.Now()
	html, err := engine.renderPage(navCtx, url)
	if err != nil {
		// Cancellation leaves the browser healthy; anything else may mean it crashed
		if navCtx.Err() != nil {
			p.put(engine)
		} else {
			p.discard(engine)
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return "", &models.NavigationTimeoutError{URL: url, Timeout: p.navigationTimeout, Err: err}
		}
		return "", err
	}

	p.put(engine)
	p.logger.Debug().
		Str("engine", p.name).
		Str("url", url).
		Int("html_bytes", len(html)).
		Dur("duration", time.Since(startTime)).
		Msg("Page rendered")

	return html, nil
}

// take returns an idle browser or launches a new one
func (p *BrowserPool) take(ctx context.Context) (browserEngine, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		engine := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return engine, nil
	}
	p.mu.Unlock()

	startTime := time.Now()
	engine, err := p.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch %s browser: %w", p.name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		engine.close()
		return nil, ErrPoolClosed
	}
	p.live[engine] = struct{}{}

	p.logger.Info().
		Str("engine", p.name).
		Int("live_browsers", len(p.live)).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser launched")
	return engine, nil
}

func (p *BrowserPool) put(engine browserEngine) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.idle = append(p.idle, engine)
}

// discard tears down a browser that failed mid-render
func (p *BrowserPool) discard(engine browserEngine) {
	p.mu.Lock()
	delete(p.live, engine)
	p.mu.Unlock()

	if err := engine.close(); err != nil {
		p.logger.Warn().Err(err).Str("engine", p.name).Msg("Failed to close browser after render error")
	}
	p.logger.Warn().Str("engine", p.name).Msg("Browser discarded, next render relaunches")
}

// Stats reports the number of launched and idle browsers
func (p *BrowserPool) Stats() (live, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live), len(p.idle)
}

// Close shuts down every launched browser. In-flight renders fail.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	engines := make([]browserEngine, 0, len(p.live))
	for engine := range p.live {
		engines = append(engines, engine)
	}
	p.live = make(map[browserEngine]struct{})
	p.idle = nil
	p.mu.Unlock()

	var g errgroup.Group
	for _, engine := range engines {
		g.Go(engine.close)
	}
	err := g.Wait()

	p.logger.Info().Str("engine", p.name).Int("browsers_shutdown", len(engines)).Msg("Browser pool shut down")
	return err
}
