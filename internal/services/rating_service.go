package services

import (
	"context"
	"strings"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
)

type RatingService struct {
	ratingRepo models.RatingRepo
	provider   identity.Provider
}

func NewRatingService(ratingRepo models.RatingRepo, provider identity.Provider) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		provider:   provider,
	}
}

// Submit upserts the current user's rating for the event, replacing any
// prior value. Values outside [0,5] are rejected before any store call.
func (rs *RatingService) Submit(ctx context.Context, eventID string, value int) error {
	user, err := rs.provider.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(eventID) == "" {
		return models.Invalid("event ID cannot be empty")
	}
	if value < 0 || value > 5 {
		return models.Invalid("rating must be between 0 and 5")
	}
	return rs.ratingRepo.SetRating(ctx, eventID, user.ID, value)
}

// Average is the arithmetic mean over all ratings for the event,
// recomputed from the record set on every call. 0.0 when no ratings
// exist.
func (rs *RatingService) Average(ctx context.Context, eventID string) (float64, error) {
	if strings.TrimSpace(eventID) == "" {
		return 0, models.Invalid("event ID cannot be empty")
	}
	ratings, err := rs.ratingRepo.ListRatings(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 0.0, nil
	}
	var sum int
	for _, r := range ratings {
		sum += r.Value
	}
	return float64(sum) / float64(len(ratings)), nil
}
