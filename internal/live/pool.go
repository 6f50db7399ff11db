package live

import (
	"context"
	"sync"

	"github.com/foroapp/server/internal/store"
)

// CountWatcher opens a live attendee-count subscription for one event.
type CountWatcher interface {
	WatchCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error)
}

// CountPool shares live attendee-count subscriptions across consumers.
// One store subscription exists per event while at least one handle
// holds a reference; the last release tears it down. Deterministic
// teardown matters: every subscription left open holds a store
// connection for the process lifetime.
type CountPool struct {
	watcher CountWatcher

	mu      sync.Mutex
	entries map[string]*poolEntry
	closed  bool
}

type poolEntry struct {
	refs       int
	sub        store.Subscription
	ready      chan struct{}
	openErr    error
	latest     int
	latestErr  error
	haveLatest bool
	handles    map[*CountHandle]struct{}
}

// CountHandle is one consumer's reference to an event's live count.
type CountHandle struct {
	pool    *CountPool
	eventID string
	fn      func(int, error)
	once    sync.Once
}

func NewCountPool(watcher CountWatcher) *CountPool {
	return &CountPool{
		watcher: watcher,
		entries: make(map[string]*poolEntry),
	}
}

// Acquire registers fn for the event's live count. The first reference
// opens the underlying subscription; later ones wait for that open to
// settle, then are fed the latest delivered count immediately. When the
// open fails, every waiter gets the same error instead of a dead handle.
func (p *CountPool) Acquire(ctx context.Context, eventID string, fn func(int, error)) (*CountHandle, error) {
	h := &CountHandle{pool: p, eventID: eventID, fn: fn}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, context.Canceled
	}
	if entry, ok := p.entries[eventID]; ok {
		entry.refs++
		entry.handles[h] = struct{}{}
		ready := entry.ready
		p.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			h.Release()
			return nil, ctx.Err()
		}

		p.mu.Lock()
		if entry.openErr != nil {
			p.mu.Unlock()
			return nil, entry.openErr
		}
		replay := entry.haveLatest
		latest, latestErr := entry.latest, entry.latestErr
		p.mu.Unlock()
		if replay {
			fn(latest, latestErr)
		}
		return h, nil
	}

	entry := &poolEntry{
		refs:    1,
		ready:   make(chan struct{}),
		handles: map[*CountHandle]struct{}{h: {}},
	}
	p.entries[eventID] = entry
	p.mu.Unlock()

	sub, err := p.watcher.WatchCount(ctx, eventID, func(count int, err error) {
		p.fanout(eventID, count, err)
	})

	p.mu.Lock()
	if err != nil {
		entry.openErr = err
		p.dropEntryLocked(eventID, entry)
		close(entry.ready)
		p.mu.Unlock()
		return nil, err
	}
	if p.closed || entry.refs == 0 {
		// Released (or pool closed) while the subscription was opening.
		entry.openErr = context.Canceled
		p.dropEntryLocked(eventID, entry)
		close(entry.ready)
		p.mu.Unlock()
		sub.Unsubscribe()
		return nil, context.Canceled
	}
	entry.sub = sub
	close(entry.ready)
	p.mu.Unlock()
	return h, nil
}

// dropEntryLocked removes the entry only if it is still the current one
// for the event; a fresh entry may have replaced it in the meantime.
func (p *CountPool) dropEntryLocked(eventID string, entry *poolEntry) {
	if p.entries[eventID] == entry {
		delete(p.entries, eventID)
	}
}

func (p *CountPool) fanout(eventID string, count int, err error) {
	p.mu.Lock()
	entry, ok := p.entries[eventID]
	if !ok {
		p.mu.Unlock()
		return
	}
	entry.latest = count
	entry.latestErr = err
	entry.haveLatest = true
	fns := make([]func(int, error), 0, len(entry.handles))
	for h := range entry.handles {
		fns = append(fns, h.fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(count, err)
	}
}

// Release drops this handle's reference. Safe to call more than once.
func (h *CountHandle) Release() {
	h.once.Do(func() {
		h.pool.release(h)
	})
}

func (p *CountPool) release(h *CountHandle) {
	p.mu.Lock()
	entry, ok := p.entries[h.eventID]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(entry.handles, h)
	entry.refs--
	if entry.refs > 0 {
		p.mu.Unlock()
		return
	}
	delete(p.entries, h.eventID)
	sub := entry.sub
	p.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Close tears down every pooled subscription. Outstanding handles become
// inert.
func (p *CountPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for _, entry := range entries {
		if entry.sub != nil {
			entry.sub.Unsubscribe()
		}
	}
}
