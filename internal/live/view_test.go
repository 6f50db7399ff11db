package live

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSub struct {
	unsubs atomic.Int32
}

func (f *fakeSub) Unsubscribe() { f.unsubs.Add(1) }

// fakeEvents hands out a subscription whose snapshots the test pushes
// explicitly through push.
type fakeEvents struct {
	mu  sync.Mutex
	fn  func([]models.Event, error)
	sub *fakeSub
}

func (f *fakeEvents) WatchEvents(ctx context.Context, fn func([]models.Event, error)) (store.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
	f.sub = &fakeSub{}
	return f.sub, nil
}

func (f *fakeEvents) push(events []models.Event) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	fn(events, nil)
}

// gatedChecker blocks every attendance lookup until the test releases
// the event's gate, so resolution order is under test control.
type gatedChecker struct {
	mu     sync.Mutex
	gates  map[string]chan struct{}
	attend map[string]bool
	fail   map[string]bool
}

func newGatedChecker(attend ...string) *gatedChecker {
	g := &gatedChecker{
		gates:  make(map[string]chan struct{}),
		attend: make(map[string]bool),
		fail:   make(map[string]bool),
	}
	for _, id := range attend {
		g.attend[id] = true
	}
	return g
}

func (g *gatedChecker) gate(eventID string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[eventID]
	if !ok {
		ch = make(chan struct{})
		g.gates[eventID] = ch
	}
	return ch
}

func (g *gatedChecker) release(eventID string) {
	close(g.gate(eventID))
}

func (g *gatedChecker) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	<-g.gate(eventID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail[eventID] {
		return false, errors.New("lookup unavailable")
	}
	return g.attend[eventID], nil
}

func eventsNamed(ids ...string) []models.Event {
	out := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Event{ID: id, Title: "event " + id})
	}
	return out
}

func eventIDs(events []models.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func recvView(t *testing.T, ch <-chan ViewUpdate) ViewUpdate {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "updates channel closed")
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view update")
		return ViewUpdate{}
	}
}

func assertNoView(t *testing.T, ch <-chan ViewUpdate) {
	t.Helper()
	time.Sleep(20 * time.Millisecond)
	select {
	case u := <-ch:
		t.Fatalf("unexpected view update: %+v", u)
	default:
	}
}

func TestViewPublishesOnlyWhenAllLookupsResolve(t *testing.T) {
	events := &fakeEvents{}
	checker := newGatedChecker("e2", "e4")
	vs := NewViewSynchronizer(events, checker, "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))
	defer vs.Close()

	events.push(eventsNamed("e1", "e2", "e3", "e4", "e5"))

	// Resolve in reverse order; nothing may appear before the last one.
	for _, id := range []string{"e5", "e4", "e3", "e2"} {
		checker.release(id)
		assertNoView(t, vs.Updates())
	}
	checker.release("e1")

	update := recvView(t, vs.Updates())
	assert.Equal(t, []string{"e2", "e4"}, eventIDs(update.Events))
	assert.Equal(t, uint64(1), update.Round)
}

func TestViewEmptySnapshot(t *testing.T) {
	events := &fakeEvents{}
	vs := NewViewSynchronizer(events, newGatedChecker(), "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))
	defer vs.Close()

	events.push(nil)

	update := recvView(t, vs.Updates())
	assert.Empty(t, update.Events)
	assert.Equal(t, uint64(1), update.Round)
}

func TestViewSupersededRoundIsDiscarded(t *testing.T) {
	events := &fakeEvents{}
	checker := newGatedChecker("e1", "e2")
	vs := NewViewSynchronizer(events, checker, "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))
	defer vs.Close()

	events.push(eventsNamed("e1"))
	// A second snapshot lands while round 1 is still blocked.
	events.push(eventsNamed("e2"))

	checker.release("e1")
	assertNoView(t, vs.Updates())

	checker.release("e2")
	update := recvView(t, vs.Updates())
	assert.Equal(t, []string{"e2"}, eventIDs(update.Events))
	assert.Equal(t, uint64(2), update.Round)

	assertNoView(t, vs.Updates())
}

func TestViewLookupFailureOmitsEvent(t *testing.T) {
	events := &fakeEvents{}
	checker := newGatedChecker("e1", "e2")
	checker.fail["e1"] = true
	vs := NewViewSynchronizer(events, checker, "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))
	defer vs.Close()

	events.push(eventsNamed("e1", "e2"))
	checker.release("e1")
	checker.release("e2")

	update := recvView(t, vs.Updates())
	assert.Equal(t, []string{"e2"}, eventIDs(update.Events))
}

func TestViewCoalescesToLatestUpdate(t *testing.T) {
	events := &fakeEvents{}
	vs := NewViewSynchronizer(events, newGatedChecker(), "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))
	defer vs.Close()

	// Empty snapshots publish synchronously, so two pushes without a
	// read exercise the latest-wins buffer.
	events.push(nil)
	events.push(nil)

	update := recvView(t, vs.Updates())
	assert.Equal(t, uint64(2), update.Round)
}

func TestViewCloseUnsubscribesAndClosesChannel(t *testing.T) {
	events := &fakeEvents{}
	vs := NewViewSynchronizer(events, newGatedChecker(), "u1", testLogger())
	require.NoError(t, vs.Start(context.Background()))

	vs.Close()
	vs.Close()

	assert.Equal(t, int32(1), events.sub.unsubs.Load())
	_, ok := <-vs.Updates()
	assert.False(t, ok)
}
