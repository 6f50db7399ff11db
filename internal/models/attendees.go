package models

import (
	"context"

	"github.com/foroapp/server/internal/store"
)

// Attendee is the join record expressing that a user will attend an
// event. Keyed by (eventId, userId): at most one record per user per
// event, created on the first attend toggle and removed on the second.
type Attendee struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	JoinedAt int64  `json:"joined_at"` // unix milliseconds
}

type AttendanceRepo interface {
	GetAttendee(ctx context.Context, eventID, userID string) (*Attendee, error)
	SetAttendee(ctx context.Context, eventID string, attendee *Attendee) error
	DeleteAttendee(ctx context.Context, eventID, userID string) error
	// CountAttendees is the cardinality of the attendee collection,
	// computed on every read rather than kept as a counter.
	CountAttendees(ctx context.Context, eventID string) (int, error)
	// WatchAttendeeCount recomputes the count from each snapshot
	// notification of the attendee collection.
	WatchAttendeeCount(ctx context.Context, eventID string, fn func(count int, err error)) (store.Subscription, error)
}

func (r *StoreRepo) GetAttendee(ctx context.Context, eventID, userID string) (*Attendee, error) {
	doc, err := r.ds.Get(ctx, AttendeePath(eventID, userID))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, WrapStore("get attendee", err)
	}
	joined, _ := doc.IntField("timestamp")
	return &Attendee{
		UserID:   doc.StringField("userId"),
		Email:    doc.StringField("email"),
		JoinedAt: joined,
	}, nil
}

func (r *StoreRepo) SetAttendee(ctx context.Context, eventID string, attendee *Attendee) error {
	fields := map[string]interface{}{
		"userId":    attendee.UserID,
		"email":     attendee.Email,
		"timestamp": attendee.JoinedAt,
	}
	if err := r.ds.Set(ctx, AttendeePath(eventID, attendee.UserID), fields); err != nil {
		return WrapStore("set attendee", err)
	}
	return nil
}

func (r *StoreRepo) DeleteAttendee(ctx context.Context, eventID, userID string) error {
	if err := r.ds.Delete(ctx, AttendeePath(eventID, userID)); err != nil {
		return WrapStore("delete attendee", err)
	}
	return nil
}

func (r *StoreRepo) CountAttendees(ctx context.Context, eventID string) (int, error) {
	docs, err := r.ds.List(ctx, AttendeesPath(eventID))
	if err != nil {
		return 0, WrapStore("count attendees", err)
	}
	return len(docs), nil
}

func (r *StoreRepo) WatchAttendeeCount(ctx context.Context, eventID string, fn func(int, error)) (store.Subscription, error) {
	sub, err := r.ds.Subscribe(ctx, AttendeesPath(eventID), func(snapshot []store.Document, err error) {
		if err != nil {
			fn(0, err)
			return
		}
		fn(len(snapshot), nil)
	})
	if err != nil {
		return nil, WrapStore("watch attendee count", err)
	}
	return sub, nil
}
