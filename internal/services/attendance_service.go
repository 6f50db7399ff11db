package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
)

type AttendanceService struct {
	attendanceRepo models.AttendanceRepo
	provider       identity.Provider
}

func NewAttendanceService(attendanceRepo models.AttendanceRepo, provider identity.Provider) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		provider:       provider,
	}
}

// Toggle flips the current user's attendance on the event: absent record
// creates one, present record deletes it. The read and the following
// write are two separate store calls with no transaction between them;
// two toggles from the same user racing each other can both observe the
// same state and the final record depends on write arrival order. Only
// user-initiated taps trigger toggles, so the race is accepted rather
// than guarded with a conditional write.
func (as *AttendanceService) Toggle(ctx context.Context, eventID string) (nowAttending bool, err error) {
	user, err := as.provider.CurrentUser(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(eventID) == "" {
		return false, models.Invalid("event ID cannot be empty")
	}

	_, err = as.attendanceRepo.GetAttendee(ctx, eventID, user.ID)
	switch {
	case err == nil:
		if err := as.attendanceRepo.DeleteAttendee(ctx, eventID, user.ID); err != nil {
			return false, err
		}
		return false, nil
	case errors.Is(err, store.ErrNotFound):
		attendee := &models.Attendee{
			UserID:   user.ID,
			Email:    user.Email,
			JoinedAt: time.Now().UnixMilli(),
		}
		if err := as.attendanceRepo.SetAttendee(ctx, eventID, attendee); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// Count is served as a one-shot read of the attendee collection.
func (as *AttendanceService) Count(ctx context.Context, eventID string) (int, error) {
	if strings.TrimSpace(eventID) == "" {
		return 0, models.Invalid("event ID cannot be empty")
	}
	return as.attendanceRepo.CountAttendees(ctx, eventID)
}

// IsAttending reports whether the given user holds an attendee record on
// the event.
func (as *AttendanceService) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	_, err := as.attendanceRepo.GetAttendee(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// WatchCount delivers the live attendee count for the event. The caller
// owns the subscription and must unsubscribe before discarding it.
func (as *AttendanceService) WatchCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, models.Invalid("event ID cannot be empty")
	}
	return as.attendanceRepo.WatchAttendeeCount(ctx, eventID, fn)
}
