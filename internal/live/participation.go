package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
)

// AttendanceCounter serves one-shot attendee counts.
type AttendanceCounter interface {
	Count(ctx context.Context, eventID string) (int, error)
}

// Participation is the live community summary: how many events exist and
// how many attendances they have gathered in total.
type Participation struct {
	TotalEvents      int    `json:"total_events"`
	TotalAttendances int    `json:"total_attendances"`
	Round            uint64 `json:"round"`
}

// ParticipationTracker recomputes the summary on every events-collection
// notification using the same round/completion-counter protocol as the
// view synchronizer: per-event counts are fetched concurrently, failures
// count as zero, and the summary is published only when every count of
// the round has resolved.
type ParticipationTracker struct {
	events  EventsWatcher
	counter AttendanceCounter
	logger  *slog.Logger

	updates chan Participation
	sub     store.Subscription

	mu        sync.Mutex
	round     uint64
	expected  int
	completed int
	total     int
	closed    bool
}

func NewParticipationTracker(events EventsWatcher, counter AttendanceCounter, logger *slog.Logger) *ParticipationTracker {
	return &ParticipationTracker{
		events:  events,
		counter: counter,
		logger:  logger,
		updates: make(chan Participation, 1),
	}
}

func (pt *ParticipationTracker) Start(ctx context.Context) error {
	sub, err := pt.events.WatchEvents(ctx, func(events []models.Event, err error) {
		if err != nil {
			pt.logger.Warn("events snapshot delivery failed", "error", err)
			return
		}
		pt.startRound(ctx, events)
	})
	if err != nil {
		return err
	}
	pt.mu.Lock()
	pt.sub = sub
	closed := pt.closed
	pt.mu.Unlock()
	if closed {
		sub.Unsubscribe()
	}
	return nil
}

func (pt *ParticipationTracker) Updates() <-chan Participation {
	return pt.updates
}

func (pt *ParticipationTracker) startRound(ctx context.Context, events []models.Event) {
	pt.mu.Lock()
	if pt.closed {
		pt.mu.Unlock()
		return
	}
	pt.round++
	r := pt.round
	pt.expected = len(events)
	pt.completed = 0
	pt.total = 0
	if len(events) == 0 {
		pt.publishLocked(Participation{Round: r})
		pt.mu.Unlock()
		return
	}
	pt.mu.Unlock()

	for _, ev := range events {
		go pt.count(ctx, r, ev, len(events))
	}
}

func (pt *ParticipationTracker) count(ctx context.Context, r uint64, ev models.Event, totalEvents int) {
	n, err := pt.counter.Count(ctx, ev.ID)
	if err != nil {
		pt.logger.Warn("attendee count failed", "event_id", ev.ID, "error", err)
		n = 0
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.closed || pt.round != r {
		return
	}
	pt.total += n
	pt.completed++
	if pt.completed != pt.expected {
		return
	}
	pt.publishLocked(Participation{
		TotalEvents:      totalEvents,
		TotalAttendances: pt.total,
		Round:            r,
	})
}

func (pt *ParticipationTracker) publishLocked(p Participation) {
	for {
		select {
		case pt.updates <- p:
			return
		default:
			select {
			case <-pt.updates:
			default:
			}
		}
	}
}

func (pt *ParticipationTracker) Close() {
	pt.mu.Lock()
	if pt.closed {
		pt.mu.Unlock()
		return
	}
	pt.closed = true
	sub := pt.sub
	pt.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	close(pt.updates)
}
