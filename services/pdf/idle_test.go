package pdf

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(window time.Duration) (*idleTracker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	tr := newIdleTracker(window)
	tr.now = clock.Now
	tr.reset()
	return tr, clock
}

func TestIdleTrackerQuietWindow(t *testing.T) {
	tr, clock := newTestTracker(500 * time.Millisecond)

	assert.False(t, tr.idle())
	clock.Advance(499 * time.Millisecond)
	assert.False(t, tr.idle())
	clock.Advance(time.Millisecond)
	assert.True(t, tr.idle())
}

func TestIdleTrackerInflightRequests(t *testing.T) {
	tr, clock := newTestTracker(500 * time.Millisecond)

	tr.handle(&network.EventRequestWillBeSent{RequestID: "img-1"})
	tr.handle(&network.EventRequestWillBeSent{RequestID: "font-1"})
	assert.Equal(t, 2, tr.inFlight())

	clock.Advance(time.Second)
	assert.False(t, tr.idle(), "requests still in flight")

	tr.handle(&network.EventLoadingFinished{RequestID: "img-1"})
	tr.handle(&network.EventLoadingFailed{RequestID: "font-1"})
	assert.Equal(t, 0, tr.inFlight())
	assert.False(t, tr.idle(), "quiet window restarts after the last response")

	clock.Advance(500 * time.Millisecond)
	assert.True(t, tr.idle())
}

func TestIdleTrackerIgnoresUnknownCompletions(t *testing.T) {
	tr, clock := newTestTracker(100 * time.Millisecond)
	clock.Advance(100 * time.Millisecond)

	tr.handle(&network.EventLoadingFinished{RequestID: "never-started"})
	assert.True(t, tr.idle())
}

func TestIdleTrackerRedirectKeepsSingleEntry(t *testing.T) {
	tr, _ := newTestTracker(100 * time.Millisecond)

	tr.handle(&network.EventRequestWillBeSent{RequestID: "r"})
	tr.handle(&network.EventRequestWillBeSent{RequestID: "r"})
	assert.Equal(t, 1, tr.inFlight())
}

func TestIdleTrackerWait(t *testing.T) {
	t.Run("returns once idle", func(t *testing.T) {
		tr := newIdleTracker(10 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, tr.wait(ctx))
	})

	t.Run("honors context deadline", func(t *testing.T) {
		tr := newIdleTracker(10 * time.Millisecond)
		tr.handle(&network.EventRequestWillBeSent{RequestID: "stuck"})

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, tr.wait(ctx), context.DeadlineExceeded)
	})
}
