package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	fail   map[string]bool
}

func (f *fakeCounter) Count(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[eventID] {
		return 0, errors.New("count unavailable")
	}
	return f.counts[eventID], nil
}

func recvParticipation(t *testing.T, ch <-chan Participation) Participation {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "updates channel closed")
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for participation update")
		return Participation{}
	}
}

func TestParticipationSumsAttendances(t *testing.T) {
	events := &fakeEvents{}
	counter := &fakeCounter{counts: map[string]int{"e1": 2, "e2": 0, "e3": 5}}
	pt := NewParticipationTracker(events, counter, testLogger())
	require.NoError(t, pt.Start(context.Background()))
	defer pt.Close()

	events.push(eventsNamed("e1", "e2", "e3"))

	p := recvParticipation(t, pt.Updates())
	assert.Equal(t, 3, p.TotalEvents)
	assert.Equal(t, 7, p.TotalAttendances)
	assert.Equal(t, uint64(1), p.Round)
}

func TestParticipationCountFailureCountsAsZero(t *testing.T) {
	events := &fakeEvents{}
	counter := &fakeCounter{
		counts: map[string]int{"e1": 4, "e2": 4},
		fail:   map[string]bool{"e2": true},
	}
	pt := NewParticipationTracker(events, counter, testLogger())
	require.NoError(t, pt.Start(context.Background()))
	defer pt.Close()

	events.push(eventsNamed("e1", "e2"))

	p := recvParticipation(t, pt.Updates())
	assert.Equal(t, 2, p.TotalEvents)
	assert.Equal(t, 4, p.TotalAttendances)
}

func TestParticipationEmptySnapshot(t *testing.T) {
	events := &fakeEvents{}
	pt := NewParticipationTracker(events, &fakeCounter{}, testLogger())
	require.NoError(t, pt.Start(context.Background()))
	defer pt.Close()

	events.push(nil)

	p := recvParticipation(t, pt.Updates())
	assert.Equal(t, 0, p.TotalEvents)
	assert.Equal(t, 0, p.TotalAttendances)
}

func TestParticipationRecomputesOnNewSnapshot(t *testing.T) {
	events := &fakeEvents{}
	counter := &fakeCounter{counts: map[string]int{"e1": 1, "e2": 3}}
	pt := NewParticipationTracker(events, counter, testLogger())
	require.NoError(t, pt.Start(context.Background()))
	defer pt.Close()

	events.push(eventsNamed("e1"))
	p := recvParticipation(t, pt.Updates())
	assert.Equal(t, 1, p.TotalAttendances)

	events.push(eventsNamed("e1", "e2"))
	p = recvParticipation(t, pt.Updates())
	assert.Equal(t, 2, p.TotalEvents)
	assert.Equal(t, 4, p.TotalAttendances)
}
