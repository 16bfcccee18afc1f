package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/common"
	"github.com/ternarybob/sitechat/internal/models"
)

type mockRenderer struct {
	RenderFunc func(ctx context.Context, url string) (string, error)
	calls      int
}

func (m *mockRenderer) Render(ctx context.Context, url string) (string, error) {
	m.calls++
	return m.RenderFunc(ctx, url)
}

func (m *mockRenderer) Close() error { return nil }

func TestService_Extract(t *testing.T) {
	renderer := &mockRenderer{RenderFunc: func(ctx context.Context, url string) (string, error) {
		assert.Equal(t, "https://example.com/about", url)
		return `<h1>About</h1><p>We are a bakery.</p>`, nil
	}}
	service := NewService(renderer, arbor.NewLogger())

	items, err := service.Extract(context.Background(), "https://example.com/about#team")
	require.NoError(t, err)
	assert.Equal(t, []models.ContentItem{
		{Kind: models.ElementHeading1, Text: "About"},
		{Kind: models.ElementParagraph, Text: "We are a bakery."},
	}, items)
}

func TestService_ExtractInvalidURLSkipsRenderer(t *testing.T) {
	renderer := &mockRenderer{RenderFunc: func(ctx context.Context, url string) (string, error) {
		t.Fatal("renderer must not be called for an invalid url")
		return "", nil
	}}
	service := NewService(renderer, arbor.NewLogger())

	for _, raw := range []string{"", "not a url", "ftp://example.com", "/relative/path"} {
		_, err := service.Extract(context.Background(), raw)
		var invalid *models.InvalidURLError
		require.ErrorAs(t, err, &invalid, raw)
		assert.ErrorIs(t, err, models.ErrScrape)
	}
	assert.Zero(t, renderer.calls)
}

func TestService_ExtractErrorMapping(t *testing.T) {
	timeoutErr := &models.NavigationTimeoutError{URL: "https://example.com", Timeout: time.Second}

	tests := []struct {
		name   string
		err    error
		assert func(t *testing.T, err error)
	}{
		{
			name: "navigation timeout passes through",
			err:  timeoutErr,
			assert: func(t *testing.T, err error) {
				assert.Same(t, timeoutErr, err)
			},
		},
		{
			name: "engine failure becomes render error",
			err:  errors.New("websocket closed"),
			assert: func(t *testing.T, err error) {
				var renderErr *models.RenderError
				require.ErrorAs(t, err, &renderErr)
				assert.Contains(t, renderErr.Error(), "websocket closed")
				assert.ErrorIs(t, err, models.ErrScrape)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &mockRenderer{RenderFunc: func(ctx context.Context, url string) (string, error) {
				return "", tt.err
			}}
			service := NewService(renderer, arbor.NewLogger())

			_, err := service.Extract(context.Background(), "https://example.com")
			tt.assert(t, err)
		})
	}
}

func TestService_ExtractCallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	renderer := &mockRenderer{RenderFunc: func(ctx context.Context, url string) (string, error) {
		cancel()
		return "", errors.New("tab closed")
	}}
	service := NewService(renderer, arbor.NewLogger())

	_, err := service.Extract(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRenderer(t *testing.T) {
	config := common.NewDefaultConfig().Crawler

	pool, err := NewRenderer(&config, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "chromedp", pool.name)

	config.Engine = "rod"
	pool, err = NewRenderer(&config, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "rod", pool.name)

	config.Engine = "webkit"
	_, err = NewRenderer(&config, arbor.NewLogger())
	assert.Error(t, err)
}
