package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
)

// rodEngine is one Chrome process driven by go-rod
type rodEngine struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	userAgent   string
	networkIdle time.Duration
}

// NewRodRenderer returns a pool of headless Chrome instances driven by go-rod
func NewRodRenderer(config *common.CrawlerConfig, logger arbor.ILogger) *BrowserPool {
	return newBrowserPool("rod", rodLauncher(config), config.MaxInstances, config.NavigationTimeout, logger)
}

func rodLauncher(config *common.CrawlerConfig) engineLauncher {
	return func(ctx context.Context) (browserEngine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l := launcher.New().
			Headless(config.Headless).
			NoSandbox(config.NoSandbox).
			Set("disable-dev-shm-usage")

		controlURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			l.Kill()
			l.Cleanup()
			return nil, fmt.Errorf("connect browser: %w", err)
		}

		return &rodEngine{
			launcher:    l,
			browser:     browser,
			userAgent:   config.UserAgent,
			networkIdle: config.NetworkIdle,
		}, nil
	}
}

func (e *rodEngine) renderPage(ctx context.Context, url string) (string, error) {
	page, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if e.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.userAgent}); err != nil {
			return "", fmt.Errorf("set user agent: %w", err)
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}

	// WaitStable covers load, request idle and DOM stability for the window
	if err := page.WaitStable(e.networkIdle); err != nil {
		return "", fmt.Errorf("wait stable: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read dom: %w", err)
	}
	return html, nil
}

func (e *rodEngine) close() error {
	err := e.browser.Close()
	e.launcher.Kill()
	e.launcher.Cleanup()
	return err
}
