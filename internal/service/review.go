package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/events"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	summarySampleSize   = 50
	summarySystemPrompt = "You summarize customer reviews for an online shop. " +
		"Write three to five neutral sentences covering what buyers liked and disliked. " +
		"Do not invent facts that are not in the reviews."
)

type ReviewService struct {
	Repo *repo.GormRepo
	AI   Completer
	Bus  Dispatcher
	TTL  time.Duration
	Now  func() time.Time
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create accepts a review only from the buyer of a confirmed order that
// contains the product, once per user, product and order.
func (s *ReviewService) Create(ctx context.Context, userID uint, req transport.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, validationf("rating must be 1..5")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, validationf("content is required")
	}

	bought, err := s.Repo.HasConfirmedPurchase(ctx, userID, req.OrderID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !bought {
		return nil, fmt.Errorf("%w: only buyers of a confirmed order can review", ErrForbidden)
	}
	exists, err := s.Repo.ReviewExists(ctx, userID, req.ProductID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: already reviewed", ErrConflict)
	}

	rv := &models.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Content:   content,
	}
	if err := s.Repo.CreateReview(ctx, rv); err != nil {
		return nil, mapRepoErr(err, "already reviewed")
	}
	s.markStale(ctx, rv.ProductID)
	if s.Bus != nil {
		s.Bus.Dispatch(ctx, events.Event{Type: events.ReviewCreated, UserID: userID, ProductID: rv.ProductID, ReviewID: rv.ID})
	}
	return rv, nil
}

func (s *ReviewService) List(ctx context.Context, productID uint, offset, limit int) (int64, []models.Review, error) {
	return s.Repo.ListReviews(ctx, productID, repo.Page{Offset: offset, Limit: limit})
}

func (s *ReviewService) Delete(ctx context.Context, userID uint, admin bool, id uint) error {
	rv, err := s.Repo.GetReview(ctx, id)
	if err != nil {
		return mapRepoErr(err, "review")
	}
	if !admin && rv.UserID != userID {
		return fmt.Errorf("%w: not your review", ErrForbidden)
	}
	if err := s.Repo.DeleteReview(ctx, rv); err != nil {
		return err
	}
	s.markStale(ctx, rv.ProductID)
	return nil
}

func (s *ReviewService) markStale(ctx context.Context, productID uint) {
	if err := s.Repo.ExpireReviewSummary(ctx, productID, s.now()); err != nil {
		logging.FromContext(ctx).Warn("expire_summary_error", "product_id", productID, "error", err)
	}
}

// Summary returns the cached summary while it is fresh and regenerates it
// otherwise. If regeneration fails a stale summary is still served.
func (s *ReviewService) Summary(ctx context.Context, productID uint) (*models.ReviewSummary, error) {
	l := logging.FromContext(ctx).With("svc", "review.summary", "product_id", productID)
	now := s.now()

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, mapRepoErr(err, "product")
	}

	cached, err := s.Repo.GetReviewSummary(ctx, productID)
	if err != nil {
		if !isNotFound(mapRepoErr(err, "summary")) {
			return nil, err
		}
		cached = nil
	}
	if cached.Fresh(now) {
		return cached, nil
	}

	count, avg, err := s.Repo.ReviewStats(ctx, productID)
	if err != nil {
		return nil, err
	}
	sum := &models.ReviewSummary{
		ProductID:     productID,
		AverageRating: avg,
		ReviewCount:   count,
		ExpiresAt:     now.Add(s.TTL),
	}

	if count > 0 {
		text, err := s.generate(ctx, productID)
		if err != nil {
			l.Warn("summary_generate_error", "error", err)
			if cached != nil {
				return cached, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		sum.Summary = text
	}

	if err := s.Repo.UpsertReviewSummary(ctx, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *ReviewService) generate(ctx context.Context, productID uint) (string, error) {
	if s.AI == nil {
		return "", fmt.Errorf("no completion backend configured")
	}
	_, reviews, err := s.Repo.ListReviews(ctx, productID, repo.Page{Limit: summarySampleSize})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, rv := range reviews {
		fmt.Fprintf(&b, "- (%d/5) %s\n", rv.Rating, rv.Content)
	}
	out, err := s.AI.Complete(ctx, summarySystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
