package models

import (
	"github.com/go-playground/validator/v10"

	"github.com/foroapp/server/internal/store"
)

var Validate = validator.New()

const (
	EventsCollection = "events"
	UsersCollection  = "users"

	attendeesSegment = "attendees"
	ratingsSegment   = "ratings"
	commentsSegment  = "comments"
)

// StoreRepo implements the repositories on top of the document store.
// All state lives in the store; nothing is cached here.
type StoreRepo struct {
	ds store.DocumentStore
}

func NewStoreRepo(ds store.DocumentStore) *StoreRepo {
	return &StoreRepo{ds: ds}
}

func EventPath(eventID string) string {
	return EventsCollection + "/" + eventID
}

func AttendeesPath(eventID string) string {
	return EventPath(eventID) + "/" + attendeesSegment
}

func AttendeePath(eventID, userID string) string {
	return AttendeesPath(eventID) + "/" + userID
}

func RatingsPath(eventID string) string {
	return EventPath(eventID) + "/" + ratingsSegment
}

func RatingPath(eventID, userID string) string {
	return RatingsPath(eventID) + "/" + userID
}

func CommentsPath(eventID string) string {
	return EventPath(eventID) + "/" + commentsSegment
}

func UserPath(userID string) string {
	return UsersCollection + "/" + userID
}
