package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idlePollInterval is how often the tracker re-checks the quiet window
const idlePollInterval = 50 * time.Millisecond

// networkIdleTracker counts in-flight requests from CDP network events.
// The page counts as settled once nothing has been in flight for the idle window.
type networkIdleTracker struct {
	window time.Duration

	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
	now          func() time.Time
}

func newNetworkIdleTracker(window time.Duration) *networkIdleTracker {
	return &networkIdleTracker{
		window:       window,
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
		now:          time.Now,
	}
}

// observe is registered with chromedp.ListenTarget
func (t *networkIdleTracker) observe(ev interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		// Redirects reuse the request id, so a set keeps the count honest
		t.inflight[e.RequestID] = struct{}{}
	case *network.EventLoadingFinished:
		delete(t.inflight, e.RequestID)
	case *network.EventLoadingFailed:
		delete(t.inflight, e.RequestID)
	default:
		return
	}
	t.lastActivity = t.now()
}

// settled reports whether no request is in flight and the window has elapsed
func (t *networkIdleTracker) settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.lastActivity) >= t.window
}

// inFlight returns the current number of open requests
func (t *networkIdleTracker) inFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// wait blocks until the network settles or ctx is done
func (t *networkIdleTracker) wait(ctx context.Context) error {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	for {
		if t.settled() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
