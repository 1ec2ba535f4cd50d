package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	viewDirtySet  = "product:views:dirty"
	viewKeyPrefix = "product:views:"
)

func viewKey(productID uint) string { return fmt.Sprintf("%s%d", viewKeyPrefix, productID) }

// ViewService buffers product views in redis and flushes them to the database.
type ViewService struct {
	Repo  *repo.GormRepo
	Redis *redis.Client
	Now   func() time.Time
}

func (s *ViewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ViewService) Record(ctx context.Context, productID, userID uint) error {
	pipe := s.Redis.TxPipeline()
	pipe.Incr(ctx, viewKey(productID))
	pipe.SAdd(ctx, viewDirtySet, productID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if userID != 0 {
		return s.Repo.TouchHistory(ctx, userID, productID, s.now())
	}
	return nil
}

// Flush moves buffered counters into products.view_count and visit_stats.
// When a write fails, the failing id gets its count back and every id of the
// batch not yet flushed returns to the dirty set.
func (s *ViewService) Flush(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx).With("svc", "views.flush")
	day := s.now().Format("2006-01-02")
	flushed := 0

	for {
		ids, err := s.Redis.SPopN(ctx, viewDirtySet, 100).Result()
		if err != nil {
			return flushed, err
		}
		if len(ids) == 0 {
			return flushed, nil
		}

		for i, raw := range ids {
			id64, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				continue
			}
			id := uint(id64)

			n, err := s.Redis.GetDel(ctx, viewKey(id)).Int64()
			if err != nil && err != redis.Nil {
				s.requeue(ctx, ids[i:])
				return flushed, err
			}
			if n == 0 {
				continue
			}

			err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
				if err := tx.AddProductViews(ctx, id, n); err != nil {
					return err
				}
				return tx.AddVisitStat(ctx, id, day, n)
			})
			if err != nil {
				l.Error("flush_views_error", "product_id", id, "views", n, "error", err)
				s.Redis.IncrBy(ctx, viewKey(id), n)
				s.requeue(ctx, ids[i:])
				return flushed, err
			}
			flushed++
		}
	}
}

// requeue puts popped but unflushed ids back into the dirty set.
func (s *ViewService) requeue(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.Redis.SAdd(ctx, viewDirtySet, members...).Err(); err != nil {
		logging.FromContext(ctx).Error("requeue_views_error", "ids", len(ids), "error", err)
	}
}

func (s *ViewService) History(ctx context.Context, userID uint, offset, limit int) (int64, []models.History, error) {
	return s.Repo.ListHistory(ctx, userID, repo.Page{Offset: offset, Limit: limit})
}

func (s *ViewService) Stats(ctx context.Context, productID uint, from, to string) ([]models.VisitStat, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, validationf("dates must be YYYY-MM-DD")
		}
	}
	return s.Repo.ListVisitStats(ctx, productID, from, to)
}
