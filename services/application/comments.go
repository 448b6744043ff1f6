package application

import (
	"context"
	"strings"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func commentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", utils.NewValidationError("text", "must not be empty")
	}
	return text, nil
}

// AddComment appends a note to the application's thread.
func (s *DefaultApplicationService) AddComment(ctx context.Context, ref, text string) (*models.Comment, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		ID:          uuid.NewString(),
		Application: app.ID,
		Text:        text,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Comments.Create(ctx, comment); err != nil {
		return nil, errors.Wrapf(err, "add comment to %s", app.Number)
	}
	if err := s.Repo.AddComment(ctx, app.ID, comment.ID); err != nil {
		return nil, errors.Wrapf(err, "link comment to %s", app.Number)
	}
	s.emit(ctx, models.EventUpdateApplication, map[string]string{"_id": app.ID, "id": app.Number})
	return comment, nil
}

func (s *DefaultApplicationService) ListComments(ctx context.Context, ref string) ([]models.Comment, error) {
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.Comments.ListByApplication(ctx, app.ID)
}

func (s *DefaultApplicationService) UpdateComment(ctx context.Context, commentID, text string) (*models.Comment, error) {
	text, err := commentText(text)
	if err != nil {
		return nil, err
	}
	return s.Comments.UpdateText(ctx, commentID, text)
}

// DeleteComment removes the comment and its reference from the application.
func (s *DefaultApplicationService) DeleteComment(ctx context.Context, commentID string) error {
	if err := s.Comments.Delete(ctx, commentID); err != nil {
		return err
	}
	if err := s.Repo.RemoveComment(ctx, commentID); err != nil {
		utils.GetLogger().Warn("Failed to unlink deleted comment", zap.String("commentId", commentID), zap.Error(err))
	}
	return nil
}
