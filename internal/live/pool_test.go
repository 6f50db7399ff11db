package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
	"github.com/foroapp/server/internal/store/memstore"
)

// fakeCounts records WatchCount openings and lets the test drive count
// deliveries by hand.
type fakeCounts struct {
	mu    sync.Mutex
	fns   map[string]func(int, error)
	subs  map[string]*fakeSub
	opens int
}

func newFakeCounts() *fakeCounts {
	return &fakeCounts{
		fns:  make(map[string]func(int, error)),
		subs: make(map[string]*fakeSub),
	}
}

func (f *fakeCounts) WatchCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.fns[eventID] = fn
	sub := &fakeSub{}
	f.subs[eventID] = sub
	return sub, nil
}

func (f *fakeCounts) deliver(eventID string, count int) {
	f.mu.Lock()
	fn := f.fns[eventID]
	f.mu.Unlock()
	fn(count, nil)
}

func TestPoolSharesOneSubscriptionPerEvent(t *testing.T) {
	ctx := context.Background()
	counts := newFakeCounts()
	pool := NewCountPool(counts)
	defer pool.Close()

	var got1, got2 []int
	h1, err := pool.Acquire(ctx, "e1", func(n int, err error) { got1 = append(got1, n) })
	require.NoError(t, err)
	h2, err := pool.Acquire(ctx, "e1", func(n int, err error) { got2 = append(got2, n) })
	require.NoError(t, err)
	defer h1.Release()
	defer h2.Release()

	assert.Equal(t, 1, counts.opens)

	counts.deliver("e1", 3)
	assert.Equal(t, []int{3}, got1)
	assert.Equal(t, []int{3}, got2)
}

func TestPoolReplaysLatestToLateJoiner(t *testing.T) {
	ctx := context.Background()
	counts := newFakeCounts()
	pool := NewCountPool(counts)
	defer pool.Close()

	h1, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)
	defer h1.Release()
	counts.deliver("e1", 7)

	var got []int
	h2, err := pool.Acquire(ctx, "e1", func(n int, err error) { got = append(got, n) })
	require.NoError(t, err)
	defer h2.Release()

	assert.Equal(t, []int{7}, got)
}

func TestPoolTearsDownOnLastRelease(t *testing.T) {
	ctx := context.Background()
	counts := newFakeCounts()
	pool := NewCountPool(counts)
	defer pool.Close()

	h1, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)
	h2, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)

	h1.Release()
	h1.Release()
	assert.Equal(t, int32(0), counts.subs["e1"].unsubs.Load())

	h2.Release()
	assert.Equal(t, int32(1), counts.subs["e1"].unsubs.Load())

	// A fresh acquire opens a new subscription.
	h3, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)
	defer h3.Release()
	assert.Equal(t, 2, counts.opens)
}

func TestPoolDistinctEventsDistinctSubscriptions(t *testing.T) {
	ctx := context.Background()
	counts := newFakeCounts()
	pool := NewCountPool(counts)
	defer pool.Close()

	var e1, e2 []int
	h1, err := pool.Acquire(ctx, "e1", func(n int, err error) { e1 = append(e1, n) })
	require.NoError(t, err)
	defer h1.Release()
	h2, err := pool.Acquire(ctx, "e2", func(n int, err error) { e2 = append(e2, n) })
	require.NoError(t, err)
	defer h2.Release()

	assert.Equal(t, 2, counts.opens)

	counts.deliver("e1", 1)
	counts.deliver("e2", 9)
	assert.Equal(t, []int{1}, e1)
	assert.Equal(t, []int{9}, e2)
}

func TestPoolCloseMakesHandlesInert(t *testing.T) {
	ctx := context.Background()
	counts := newFakeCounts()
	pool := NewCountPool(counts)

	h, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)

	pool.Close()
	assert.Equal(t, int32(1), counts.subs["e1"].unsubs.Load())

	h.Release()
	assert.Equal(t, int32(1), counts.subs["e1"].unsubs.Load())

	_, err = pool.Acquire(ctx, "e1", func(int, error) {})
	assert.ErrorIs(t, err, context.Canceled)
}

// blockingCounts holds WatchCount open until the test settles it, so
// acquires can be interleaved with the opening window.
type blockingCounts struct {
	opened chan struct{}
	settle chan error
}

func newBlockingCounts() *blockingCounts {
	return &blockingCounts{
		opened: make(chan struct{}, 2),
		settle: make(chan error),
	}
}

func (b *blockingCounts) WatchCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error) {
	b.opened <- struct{}{}
	if err := <-b.settle; err != nil {
		return nil, err
	}
	return &fakeSub{}, nil
}

func TestPoolOpenFailureRejectsLateJoiner(t *testing.T) {
	ctx := context.Background()
	counts := newBlockingCounts()
	pool := NewCountPool(counts)
	defer pool.Close()

	errs := make(chan error, 2)
	go func() {
		_, err := pool.Acquire(ctx, "e1", func(int, error) {})
		errs <- err
	}()
	<-counts.opened

	// Second consumer joins while the first open is still in flight.
	go func() {
		_, err := pool.Acquire(ctx, "e1", func(int, error) {})
		errs <- err
	}()
	time.Sleep(50 * time.Millisecond)

	counts.settle <- errors.New("watch unavailable")

	for i := 0; i < 2; i++ {
		err := <-errs
		require.Error(t, err)
		assert.EqualError(t, err, "watch unavailable")
	}

	// The failed entry is gone; a fresh acquire opens anew.
	go func() {
		<-counts.opened
		counts.settle <- nil
	}()
	h, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)
	h.Release()
}

// countWatcherRepo adapts the repo's per-event watch to the pool's
// interface the same way the attendance service does.
type countWatcherRepo struct {
	repo models.AttendanceRepo
}

func (w countWatcherRepo) WatchCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error) {
	return w.repo.WatchAttendeeCount(ctx, eventID, fn)
}

func TestPoolAgainstLiveStore(t *testing.T) {
	ctx := context.Background()
	ms := memstore.New()
	repo := models.NewStoreRepo(ms)
	pool := NewCountPool(countWatcherRepo{repo: repo})
	defer pool.Close()

	var got []int
	h1, err := pool.Acquire(ctx, "e1", func(n int, err error) {
		require.NoError(t, err)
		got = append(got, n)
	})
	require.NoError(t, err)
	h2, err := pool.Acquire(ctx, "e1", func(int, error) {})
	require.NoError(t, err)

	assert.Equal(t, 1, ms.SubscriberCount(models.AttendeesPath("e1")))

	require.NoError(t, repo.SetAttendee(ctx, "e1", &models.Attendee{UserID: "u1", JoinedAt: 1}))
	require.NoError(t, repo.SetAttendee(ctx, "e1", &models.Attendee{UserID: "u2", JoinedAt: 2}))
	require.NoError(t, repo.DeleteAttendee(ctx, "e1", "u1"))
	assert.Equal(t, []int{0, 1, 2, 1}, got)

	h1.Release()
	assert.Equal(t, 1, ms.SubscriberCount(models.AttendeesPath("e1")))
	h2.Release()
	assert.Equal(t, 0, ms.SubscriberCount(models.AttendeesPath("e1")))
}
