package models

import (
	"context"
	"sort"
)

// Comment belongs to one event and is immutable once created.
type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

type CommentRepo interface {
	AddComment(ctx context.Context, eventID string, comment *Comment) (string, error)
	// ListComments returns all comments for the event ordered ascending
	// by timestamp.
	ListComments(ctx context.Context, eventID string) ([]Comment, error)
}

func (r *StoreRepo) AddComment(ctx context.Context, eventID string, comment *Comment) (string, error) {
	fields := map[string]interface{}{
		"userId":    comment.UserID,
		"email":     comment.Email,
		"text":      comment.Text,
		"timestamp": comment.Timestamp,
	}
	id, err := r.ds.Add(ctx, CommentsPath(eventID), fields)
	if err != nil {
		return "", WrapStore("add comment", err)
	}
	comment.ID = id
	return id, nil
}

func (r *StoreRepo) ListComments(ctx context.Context, eventID string) ([]Comment, error) {
	docs, err := r.ds.List(ctx, CommentsPath(eventID))
	if err != nil {
		return nil, WrapStore("list comments", err)
	}
	comments := make([]Comment, 0, len(docs))
	for _, doc := range docs {
		ts, _ := doc.IntField("timestamp")
		comments = append(comments, Comment{
			ID:        doc.ID,
			UserID:    doc.StringField("userId"),
			Email:     doc.StringField("email"),
			Text:      doc.StringField("text"),
			Timestamp: ts,
		})
	}
	// The store's own ordering is not trusted; sort stably so comments
	// created in the same millisecond keep a deterministic order.
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Timestamp < comments[j].Timestamp
	})
	return comments, nil
}
