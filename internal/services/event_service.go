package services

import (
	"context"
	"strings"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
	"github.com/foroapp/server/internal/store"
)

type EventService struct {
	eventRepo models.EventRepo
	provider  identity.Provider
}

func NewEventService(eventRepo models.EventRepo, provider identity.Provider) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		provider:  provider,
	}
}

// CreateEvent stores a new event and returns its store-assigned id.
// Creation is gated on the admin capability; the gate is client-side
// policy, mirrored nowhere stronger than the store's own rules.
func (es *EventService) CreateEvent(ctx context.Context, event *models.Event) (string, error) {
	user, err := es.provider.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if !identity.CanCreateEvents(user) {
		return "", models.ErrPermissionDenied
	}
	if err := models.Validate.Struct(event); err != nil {
		return "", models.Invalid(err.Error())
	}
	return es.eventRepo.CreateEvent(ctx, event)
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.Invalid("event ID cannot be empty")
	}
	return es.eventRepo.GetEvent(ctx, id)
}

func (es *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return es.eventRepo.ListEvents(ctx)
}

// UpdateEvent replaces the full event document. Any authenticated user
// may update any event; there is no ownership field on the record.
func (es *EventService) UpdateEvent(ctx context.Context, event *models.Event) error {
	if _, err := es.provider.CurrentUser(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(event.ID) == "" {
		return models.Invalid("event ID cannot be empty")
	}
	if err := models.Validate.Struct(event); err != nil {
		return models.Invalid(err.Error())
	}
	return es.eventRepo.UpdateEvent(ctx, event)
}

// DeleteEvent removes the event document only. Attendee, rating and
// comment subrecords stay behind as orphans.
func (es *EventService) DeleteEvent(ctx context.Context, id string) error {
	if _, err := es.provider.CurrentUser(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return models.Invalid("event ID cannot be empty")
	}
	return es.eventRepo.DeleteEvent(ctx, id)
}

func (es *EventService) WatchEvents(ctx context.Context, fn func([]models.Event, error)) (store.Subscription, error) {
	return es.eventRepo.WatchEvents(ctx, fn)
}
