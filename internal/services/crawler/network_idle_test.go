package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkIdleTracker_CountsRequests(t *testing.T) {
	tracker := newNetworkIdleTracker(0)

	tracker.observe(&network.EventRequestWillBeSent{RequestID: "1"})
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "2"})
	// Redirect reuses the id
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "2"})
	assert.Equal(t, 2, tracker.inFlight())
	assert.False(t, tracker.settled())

	tracker.observe(&network.EventLoadingFinished{RequestID: "1"})
	tracker.observe(&network.EventLoadingFailed{RequestID: "2"})
	assert.Equal(t, 0, tracker.inFlight())
	assert.True(t, tracker.settled())

	// Unrelated events are ignored
	tracker.observe(&network.EventResponseReceived{RequestID: "3"})
	assert.Equal(t, 0, tracker.inFlight())
}

func TestNetworkIdleTracker_WaitsForWindow(t *testing.T) {
	now := time.Now()
	tracker := newNetworkIdleTracker(500 * time.Millisecond)
	tracker.now = func() time.Time { return now }

	tracker.observe(&network.EventRequestWillBeSent{RequestID: "1"})
	tracker.observe(&network.EventLoadingFinished{RequestID: "1"})
	assert.False(t, tracker.settled(), "window has not elapsed")

	now = now.Add(499 * time.Millisecond)
	assert.False(t, tracker.settled())

	now = now.Add(time.Millisecond)
	assert.True(t, tracker.settled())
}

func TestNetworkIdleTracker_WaitHonoursContext(t *testing.T) {
	tracker := newNetworkIdleTracker(10 * time.Millisecond)
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := tracker.wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNetworkIdleTracker_WaitReturnsWhenSettled(t *testing.T) {
	tracker := newNetworkIdleTracker(20 * time.Millisecond)
	tracker.observe(&network.EventRequestWillBeSent{RequestID: "1"})

	go func() {
		time.Sleep(30 * time.Millisecond)
		tracker.observe(&network.EventLoadingFinished{RequestID: "1"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tracker.wait(ctx))
}
