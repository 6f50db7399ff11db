package models

import (
	"context"

	"github.com/foroapp/server/internal/store"
)

// Event is a user-created activity record. All fields besides the
// store-assigned id are opaque text supplied by the creator; the id is
// immutable for the document's lifetime.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type EventRepo interface {
	// CreateEvent writes the event under a store-assigned id, which is
	// fixed before the first write, and returns that id.
	CreateEvent(ctx context.Context, event *Event) (string, error)
	// GetEvent returns store.ErrNotFound (wrapped) when the id is absent.
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	// UpdateEvent replaces the full document. An absent id completes as
	// an upsert at the store; no not-found error is synthesized.
	UpdateEvent(ctx context.Context, event *Event) error
	// DeleteEvent removes only the event document. Attendee, rating and
	// comment subrecords are left behind; there is no cascade.
	DeleteEvent(ctx context.Context, id string) error
	// WatchEvents delivers the full event list on every change to the
	// events collection, starting with the current snapshot.
	WatchEvents(ctx context.Context, fn func(events []Event, err error)) (store.Subscription, error)
}

func (e *Event) fields() map[string]interface{} {
	return map[string]interface{}{
		"title":       e.Title,
		"date":        e.Date,
		"time":        e.Time,
		"location":    e.Location,
		"description": e.Description,
	}
}

func eventFromDoc(doc store.Document) Event {
	return Event{
		ID:          doc.ID,
		Title:       doc.StringField("title"),
		Date:        doc.StringField("date"),
		Time:        doc.StringField("time"),
		Location:    doc.StringField("location"),
		Description: doc.StringField("description"),
	}
}

func (r *StoreRepo) CreateEvent(ctx context.Context, event *Event) (string, error) {
	id, err := r.ds.Add(ctx, EventsCollection, event.fields())
	if err != nil {
		return "", WrapStore("create event", err)
	}
	event.ID = id
	return id, nil
}

func (r *StoreRepo) GetEvent(ctx context.Context, id string) (*Event, error) {
	doc, err := r.ds.Get(ctx, EventPath(id))
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, WrapStore("get event", err)
	}
	event := eventFromDoc(doc)
	return &event, nil
}

func (r *StoreRepo) ListEvents(ctx context.Context) ([]Event, error) {
	docs, err := r.ds.List(ctx, EventsCollection)
	if err != nil {
		return nil, WrapStore("list events", err)
	}
	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, eventFromDoc(doc))
	}
	return events, nil
}

func (r *StoreRepo) UpdateEvent(ctx context.Context, event *Event) error {
	if err := r.ds.Set(ctx, EventPath(event.ID), event.fields()); err != nil {
		return WrapStore("update event", err)
	}
	return nil
}

func (r *StoreRepo) DeleteEvent(ctx context.Context, id string) error {
	if err := r.ds.Delete(ctx, EventPath(id)); err != nil {
		return WrapStore("delete event", err)
	}
	return nil
}

func (r *StoreRepo) WatchEvents(ctx context.Context, fn func([]Event, error)) (store.Subscription, error) {
	sub, err := r.ds.Subscribe(ctx, EventsCollection, func(snapshot []store.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		events := make([]Event, 0, len(snapshot))
		for _, doc := range snapshot {
			events = append(events, eventFromDoc(doc))
		}
		fn(events, nil)
	})
	if err != nil {
		return nil, WrapStore("watch events", err)
	}
	return sub, nil
}
