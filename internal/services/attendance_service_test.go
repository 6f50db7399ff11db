package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store/memstore"
)

func newAttendanceFixture(user identity.User) (*AttendanceService, *memstore.Store) {
	ms := memstore.New()
	repo := models.NewStoreRepo(ms)
	return NewAttendanceService(repo, identity.Static{User: user}), ms
}

func TestToggleAlternates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAttendanceFixture(identity.User{ID: "u1", Email: "u1@example.com"})

	attending, err := svc.Toggle(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, attending)

	attending, err = svc.Toggle(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, attending)

	attending, err = svc.Toggle(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, attending)

	count, err := svc.Count(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestToggleWritesUserRecord(t *testing.T) {
	ctx := context.Background()
	svc, ms := newAttendanceFixture(identity.User{ID: "u1", Email: "u1@example.com"})

	_, err := svc.Toggle(ctx, "e1")
	require.NoError(t, err)

	doc, err := ms.Get(ctx, models.AttendeePath("e1", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.StringField("userId"))
	assert.Equal(t, "u1@example.com", doc.StringField("email"))
	joined, ok := doc.IntField("timestamp")
	assert.True(t, ok)
	assert.Greater(t, joined, int64(0))
}

func TestCountTracksDistinctUsers(t *testing.T) {
	ctx := context.Background()
	ms := memstore.New()
	repo := models.NewStoreRepo(ms)

	for i := 0; i < 5; i++ {
		user := identity.User{ID: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		svc := NewAttendanceService(repo, identity.Static{User: user})
		_, err := svc.Toggle(ctx, "e1")
		require.NoError(t, err)
	}

	// u0 and u1 toggle back off.
	for i := 0; i < 2; i++ {
		user := identity.User{ID: fmt.Sprintf("u%d", i)}
		svc := NewAttendanceService(repo, identity.Static{User: user})
		_, err := svc.Toggle(ctx, "e1")
		require.NoError(t, err)
	}

	svc := NewAttendanceService(repo, identity.Static{User: identity.User{ID: "u4"}})
	count, err := svc.Count(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestToggleRequiresAuthentication(t *testing.T) {
	svc, _ := newAttendanceFixture(identity.User{})

	_, err := svc.Toggle(context.Background(), "e1")
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestToggleRejectsEmptyEventID(t *testing.T) {
	svc, _ := newAttendanceFixture(identity.User{ID: "u1"})

	_, err := svc.Toggle(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIsAttending(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAttendanceFixture(identity.User{ID: "u1"})

	attending, err := svc.IsAttending(ctx, "e1", "u1")
	require.NoError(t, err)
	assert.False(t, attending)

	_, err = svc.Toggle(ctx, "e1")
	require.NoError(t, err)

	attending, err = svc.IsAttending(ctx, "e1", "u1")
	require.NoError(t, err)
	assert.True(t, attending)

	attending, err = svc.IsAttending(ctx, "e1", "someone-else")
	require.NoError(t, err)
	assert.False(t, attending)
}

func TestWatchCountDeliversChanges(t *testing.T) {
	ctx := context.Background()
	svc, ms := newAttendanceFixture(identity.User{ID: "u1"})

	var counts []int
	sub, err := svc.WatchCount(ctx, "e1", func(count int, err error) {
		require.NoError(t, err)
		counts = append(counts, count)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	_, err = svc.Toggle(ctx, "e1")
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "e1")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0}, counts)
	assert.Equal(t, 1, ms.SubscriberCount(models.AttendeesPath("e1")))
}
