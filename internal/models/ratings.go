package models

import "context"

// Rating is one user's score for one event, an integer in [0,5]. Keyed
// by (eventId, userId); re-rating replaces the prior value, no history.
type Rating struct {
	UserID string `json:"user_id"`
	Value  int    `json:"value"`
}

type RatingRepo interface {
	SetRating(ctx context.Context, eventID, userID string, value int) error
	ListRatings(ctx context.Context, eventID string) ([]Rating, error)
}

func (r *StoreRepo) SetRating(ctx context.Context, eventID, userID string, value int) error {
	fields := map[string]interface{}{"value": value}
	if err := r.ds.Set(ctx, RatingPath(eventID, userID), fields); err != nil {
		return WrapStore("set rating", err)
	}
	return nil
}

func (r *StoreRepo) ListRatings(ctx context.Context, eventID string) ([]Rating, error) {
	docs, err := r.ds.List(ctx, RatingsPath(eventID))
	if err != nil {
		return nil, WrapStore("list ratings", err)
	}
	ratings := make([]Rating, 0, len(docs))
	for _, doc := range docs {
		value, ok := doc.IntField("value")
		if !ok {
			continue
		}
		ratings = append(ratings, Rating{UserID: doc.ID, Value: int(value)})
	}
	return ratings, nil
}
