package services

import (
	"context"
	"strings"
	"time"

	"github.com/foroapp/server/internal/identity"
	"github.com/foroapp/server/internal/models"
)

type CommentService struct {
	commentRepo models.CommentRepo
	provider    identity.Provider
}

func NewCommentService(commentRepo models.CommentRepo, provider identity.Provider) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		provider:    provider,
	}
}

// Append records a comment by the current user. Text that is empty after
// trimming is a silent no-op rather than an error.
func (cs *CommentService) Append(ctx context.Context, eventID, text string) (*models.Comment, error) {
	user, err := cs.provider.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(eventID) == "" {
		return nil, models.Invalid("event ID cannot be empty")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	comment := &models.Comment{
		UserID:    user.ID,
		Email:     user.Email,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	if _, err := cs.commentRepo.AddComment(ctx, eventID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// List returns the event's comments in ascending timestamp order.
// Comments cannot be edited or deleted.
func (cs *CommentService) List(ctx context.Context, eventID string) ([]models.Comment, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, models.Invalid("event ID cannot be empty")
	}
	return cs.commentRepo.ListComments(ctx, eventID)
}
