package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const secretTitle = "Secret question"

type QnAService struct {
	Repo     *repo.GormRepo
	Notifier Notifier
}

func (s *QnAService) Ask(ctx context.Context, userID, productID uint, req transport.QuestionRequest) (*models.Question, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, validationf("title and content are required")
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, mapRepoErr(err, "product")
	}
	q := &models.Question{
		ProductID: productID,
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		Secret:    req.Secret,
	}
	if err := s.Repo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, fmt.Sprintf("New question #%d on product %d: %s", q.ID, productID, q.Title)); err != nil {
			logging.FromContext(ctx).Warn("slack_notify_error", "error", err)
		}
	}
	return q, nil
}

// List hides the body and answer of secret questions from everyone except
// the author and admins.
func (s *QnAService) List(ctx context.Context, productID, viewerID uint, admin bool, offset, limit int) (int64, []models.Question, error) {
	total, items, err := s.Repo.ListQuestions(ctx, productID, repo.Page{Offset: offset, Limit: limit})
	if err != nil {
		return 0, nil, err
	}
	for i := range items {
		q := &items[i]
		if q.Secret && !admin && (viewerID == 0 || q.UserID != viewerID) {
			q.Title = secretTitle
			q.Content = ""
			q.Answer = nil
		}
	}
	return total, items, nil
}

func (s *QnAService) Delete(ctx context.Context, userID uint, admin bool, id uint) error {
	q, err := s.Repo.GetQuestion(ctx, id)
	if err != nil {
		return mapRepoErr(err, "question")
	}
	if !admin && q.UserID != userID {
		return fmt.Errorf("%w: not your question", ErrForbidden)
	}
	return s.Repo.DeleteQuestion(ctx, q)
}

func (s *QnAService) Answer(ctx context.Context, adminID, questionID uint, content string) (*models.Answer, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("content is required")
	}
	var a *models.Answer
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		q, err := tx.LockQuestion(ctx, questionID)
		if err != nil {
			return mapRepoErr(err, "question")
		}
		if q.Answered {
			return fmt.Errorf("%w: question already answered", ErrConflict)
		}
		a = &models.Answer{QuestionID: q.ID, AdminID: adminID, Content: content}
		if err := tx.CreateAnswer(ctx, a); err != nil {
			return mapRepoErr(err, "question already answered")
		}
		return tx.MarkAnswered(ctx, q.ID)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
