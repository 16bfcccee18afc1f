package crawler

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
)

// chromeEngine is one Chrome process driven over CDP by chromedp
type chromeEngine struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	networkIdle   time.Duration
}

// NewChromeDPRenderer returns a pool of headless Chrome instances driven by chromedp
func NewChromeDPRenderer(config *common.CrawlerConfig, logger arbor.ILogger) *BrowserPool {
	return newBrowserPool("chromedp", chromeLauncher(config), config.MaxInstances, config.NavigationTimeout, logger)
}

func chromeLauncher(config *common.CrawlerConfig) engineLauncher {
	return func(ctx context.Context) (browserEngine, error) {
		allocatorOpts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", config.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", config.NoSandbox),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(config.UserAgent),
		)

		// The browser outlives the request that launched it
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		started := make(chan error, 1)
		go func() {
			// Run with no actions starts the browser process
			started <- chromedp.Run(browserCtx)
		}()

		select {
		case err := <-started:
			if err != nil {
				browserCancel()
				allocCancel()
				return nil, err
			}
		case <-ctx.Done():
			browserCancel()
			allocCancel()
			return nil, ctx.Err()
		}

		return &chromeEngine{
			browserCtx:    browserCtx,
			browserCancel: browserCancel,
			allocCancel:   allocCancel,
			networkIdle:   config.NetworkIdle,
		}, nil
	}
}

func (e *chromeEngine) renderPage(ctx context.Context, url string) (string, error) {
	// A new context on the browser context opens a new tab; cancelling it closes the tab
	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx)
	defer tabCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	idle := newNetworkIdleTracker(e.networkIdle)
	chromedp.ListenTarget(tabCtx, idle.observe)

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.ActionFunc(idle.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func (e *chromeEngine) close() error {
	e.browserCancel()
	e.allocCancel()
	return nil
}
