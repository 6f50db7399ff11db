// Package live keeps derived presentation state in step with the store's
// change notifications: the per-user "events I attend" view, live
// attendee counts, and the participation summary. Consumers range over
// channels; no polling anywhere.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
)

// EventsWatcher is the slice of the event service the synchronizer needs.
type EventsWatcher interface {
	WatchEvents(ctx context.Context, fn func([]models.Event, error)) (store.Subscription, error)
}

// AttendanceChecker answers membership lookups for one (event, user) pair.
type AttendanceChecker interface {
	IsAttending(ctx context.Context, eventID, userID string) (bool, error)
}

// ViewUpdate is one fully consolidated "my events" snapshot. Round is a
// monotonic generation number; consumers may use it to spot skipped
// intermediate updates.
type ViewUpdate struct {
	Events []models.Event `json:"events"`
	Round  uint64         `json:"round"`
}

// ViewSynchronizer maintains one user's live attended-events view. Each
// events-collection notification starts a round: one concurrent
// attendance lookup per event, a completion counter, and a publish only
// when every lookup of the round has resolved. A snapshot arriving
// mid-round supersedes the round; its partial results are discarded.
type ViewSynchronizer struct {
	events     EventsWatcher
	attendance AttendanceChecker
	userID     string
	logger     *slog.Logger

	updates chan ViewUpdate
	sub     store.Subscription

	mu        sync.Mutex
	round     uint64
	expected  int
	completed int
	snapshot  []models.Event
	attending []bool
	closed    bool
}

func NewViewSynchronizer(events EventsWatcher, attendance AttendanceChecker, userID string, logger *slog.Logger) *ViewSynchronizer {
	return &ViewSynchronizer{
		events:     events,
		attendance: attendance,
		userID:     userID,
		logger:     logger,
		updates:    make(chan ViewUpdate, 1),
	}
}

// Start opens the events subscription. The first consolidated view is
// published once the initial snapshot's lookups have all resolved.
func (vs *ViewSynchronizer) Start(ctx context.Context) error {
	sub, err := vs.events.WatchEvents(ctx, func(events []models.Event, err error) {
		if err != nil {
			// Keep the last-known-good view on delivery failures.
			vs.logger.Warn("events snapshot delivery failed", "error", err)
			return
		}
		vs.startRound(ctx, events)
	})
	if err != nil {
		return err
	}
	vs.mu.Lock()
	vs.sub = sub
	closed := vs.closed
	vs.mu.Unlock()
	if closed {
		sub.Unsubscribe()
	}
	return nil
}

// Updates delivers consolidated views, coalescing to the latest when the
// consumer lags. The channel is closed by Close.
func (vs *ViewSynchronizer) Updates() <-chan ViewUpdate {
	return vs.updates
}

func (vs *ViewSynchronizer) startRound(ctx context.Context, events []models.Event) {
	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return
	}
	vs.round++
	r := vs.round
	// Counters reset together with the pending results so a superseded
	// round cannot leak entries into this one.
	vs.expected = len(events)
	vs.completed = 0
	vs.snapshot = events
	vs.attending = make([]bool, len(events))
	if len(events) == 0 {
		vs.publishLocked(ViewUpdate{Events: []models.Event{}, Round: r})
		vs.mu.Unlock()
		return
	}
	vs.mu.Unlock()

	for i, ev := range events {
		go vs.lookup(ctx, r, i, ev)
	}
}

func (vs *ViewSynchronizer) lookup(ctx context.Context, r uint64, i int, ev models.Event) {
	attending, err := vs.attendance.IsAttending(ctx, ev.ID, vs.userID)
	if err != nil {
		// A failed lookup still counts toward completion; the event is
		// simply absent from the view.
		vs.logger.Warn("attendance lookup failed", "event_id", ev.ID, "error", err)
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.closed || vs.round != r {
		return
	}
	if err == nil && attending {
		vs.attending[i] = true
	}
	vs.completed++
	if vs.completed != vs.expected {
		return
	}
	view := make([]models.Event, 0, len(vs.snapshot))
	for j, e := range vs.snapshot {
		if vs.attending[j] {
			view = append(view, e)
		}
	}
	vs.publishLocked(ViewUpdate{Events: view, Round: r})
}

// publishLocked sends with latest-wins coalescing. Caller holds vs.mu,
// which also serializes against Close, so the send cannot hit a closed
// channel.
func (vs *ViewSynchronizer) publishLocked(u ViewUpdate) {
	for {
		select {
		case vs.updates <- u:
			return
		default:
			select {
			case <-vs.updates:
			default:
			}
		}
	}
}

// Close unsubscribes from the store before the updates channel is
// closed; pending round results are discarded.
func (vs *ViewSynchronizer) Close() {
	vs.mu.Lock()
	if vs.closed {
		vs.mu.Unlock()
		return
	}
	vs.closed = true
	sub := vs.sub
	vs.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	close(vs.updates)
}
