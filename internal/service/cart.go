package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/lock"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const guestCartTTL = 7 * 24 * time.Hour

func guestCartKey(guestID string) string { return "cart:guest:" + guestID }

// CartOwner is either a signed-in user or a guest identified by X-Guest-Id.
type CartOwner struct {
	UserID  uint
	GuestID string
}

func (o CartOwner) valid() bool { return o.UserID != 0 || strings.TrimSpace(o.GuestID) != "" }

type CartService struct {
	Repo   *repo.GormRepo
	Redis  *redis.Client
	Locker Locker
}

type CartView struct {
	Items []models.CartItem `json:"items"`
	Total int64             `json:"total"`
}

func newCartView(items []models.CartItem) *CartView {
	v := &CartView{Items: items}
	if v.Items == nil {
		v.Items = []models.CartItem{}
	}
	for _, it := range items {
		if it.Product != nil {
			v.Total += it.Product.Price * it.Quantity
		}
	}
	return v
}

func (s *CartService) Get(ctx context.Context, owner CartOwner) (*CartView, error) {
	if !owner.valid() {
		return nil, fmt.Errorf("%w: sign in or provide X-Guest-Id", ErrUnauthorized)
	}
	if owner.UserID != 0 {
		items, err := s.Repo.GetCart(ctx, owner.UserID)
		if err != nil {
			return nil, err
		}
		return newCartView(items), nil
	}

	lines, err := s.guestLines(ctx, owner.GuestID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(products))
	for i := range products {
		p := products[i]
		items = append(items, models.CartItem{ProductID: p.ID, Quantity: lines[p.ID], Product: &p})
	}
	return newCartView(items), nil
}

// Add puts qty more of a product into the cart.
func (s *CartService) Add(ctx context.Context, owner CartOwner, productID uint, qty int64) error {
	if qty < 1 {
		return validationf("quantity must be >= 1")
	}
	return s.mutate(ctx, owner, productID, func(current int64) int64 { return current + qty })
}

// SetQuantity replaces the quantity of an existing line.
func (s *CartService) SetQuantity(ctx context.Context, owner CartOwner, productID uint, qty int64) error {
	if qty < 1 {
		return validationf("quantity must be >= 1")
	}
	return s.mutate(ctx, owner, productID, func(current int64) int64 {
		if current == 0 {
			return 0
		}
		return qty
	})
}

func (s *CartService) mutate(ctx context.Context, owner CartOwner, productID uint, next func(current int64) int64) error {
	if !owner.valid() {
		return fmt.Errorf("%w: sign in or provide X-Guest-Id", ErrUnauthorized)
	}
	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return mapRepoErr(err, "product")
	}

	if owner.UserID == 0 {
		return s.Locker.WithLock(ctx, lock.Key("cart:guest", owner.GuestID), func(ctx context.Context) error {
			key := guestCartKey(owner.GuestID)
			field := strconv.FormatUint(uint64(productID), 10)
			cur, err := s.Redis.HGet(ctx, key, field).Int64()
			if err != nil && err != redis.Nil {
				return err
			}
			qty := next(cur)
			if qty == 0 {
				return fmt.Errorf("%w: cart item", ErrNotFound)
			}
			if qty > product.Stock {
				return fmt.Errorf("%w: only %d left", ErrOutOfStock, product.Stock)
			}
			pipe := s.Redis.TxPipeline()
			pipe.HSet(ctx, key, field, qty)
			pipe.Expire(ctx, key, guestCartTTL)
			_, err = pipe.Exec(ctx)
			return err
		})
	}

	return s.Locker.WithLock(ctx, lock.Key("cart", owner.UserID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			item, err := tx.LockCartItem(ctx, owner.UserID, productID)
			if err != nil {
				return err
			}
			var cur int64
			if item != nil {
				cur = item.Quantity
			}
			qty := next(cur)
			if qty == 0 {
				return fmt.Errorf("%w: cart item", ErrNotFound)
			}
			if qty > product.Stock {
				return fmt.Errorf("%w: only %d left", ErrOutOfStock, product.Stock)
			}
			if item == nil {
				return tx.CreateCartItem(ctx, &models.CartItem{UserID: owner.UserID, ProductID: productID, Quantity: qty})
			}
			return tx.SetCartQuantity(ctx, item, qty)
		})
	})
}

func (s *CartService) Remove(ctx context.Context, owner CartOwner, productID uint) error {
	if !owner.valid() {
		return fmt.Errorf("%w: sign in or provide X-Guest-Id", ErrUnauthorized)
	}
	if owner.UserID == 0 {
		n, err := s.Redis.HDel(ctx, guestCartKey(owner.GuestID), strconv.FormatUint(uint64(productID), 10)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: cart item", ErrNotFound)
		}
		return nil
	}
	return s.Locker.WithLock(ctx, lock.Key("cart", owner.UserID), func(ctx context.Context) error {
		return mapRepoErr(s.Repo.DeleteCartItem(ctx, owner.UserID, productID), "cart item")
	})
}

func (s *CartService) Clear(ctx context.Context, owner CartOwner) error {
	if !owner.valid() {
		return fmt.Errorf("%w: sign in or provide X-Guest-Id", ErrUnauthorized)
	}
	if owner.UserID == 0 {
		return s.Redis.Del(ctx, guestCartKey(owner.GuestID)).Err()
	}
	return s.Locker.WithLock(ctx, lock.Key("cart", owner.UserID), func(ctx context.Context) error {
		return s.Repo.DeleteCartItems(ctx, owner.UserID, nil)
	})
}

// Merge folds the guest cart into the user's cart. Quantities are summed and
// capped at current stock; vanished products are skipped. The guest cart is
// deleted afterwards, so repeating the call is a no-op.
func (s *CartService) Merge(ctx context.Context, userID uint, guestID string) (int, error) {
	if userID == 0 {
		return 0, ErrUnauthorized
	}
	guestID = strings.TrimSpace(guestID)
	if guestID == "" {
		return 0, nil
	}
	l := logging.FromContext(ctx).With("svc", "cart.merge", "user_id", userID)

	merged := 0
	err := s.Locker.WithLock(ctx, lock.Key("cart", userID), func(ctx context.Context) error {
		lines, err := s.guestLines(ctx, guestID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(lines))
		for id := range lines {
			ids = append(ids, id)
		}
		sortUints(ids)

		err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			for _, pid := range ids {
				product, err := tx.GetProduct(ctx, pid)
				if err != nil {
					if mapped := mapRepoErr(err, "product"); isNotFound(mapped) {
						l.Info("merge_skip_missing_product", "product_id", pid)
						continue
					}
					return err
				}
				if product.Stock <= 0 {
					continue
				}
				item, err := tx.LockCartItem(ctx, userID, pid)
				if err != nil {
					return err
				}
				var cur int64
				if item != nil {
					cur = item.Quantity
				}
				qty := min(cur+lines[pid], product.Stock)
				if item == nil {
					err = tx.CreateCartItem(ctx, &models.CartItem{UserID: userID, ProductID: pid, Quantity: qty})
				} else {
					err = tx.SetCartQuantity(ctx, item, qty)
				}
				if err != nil {
					return err
				}
				merged++
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.Redis.Del(ctx, guestCartKey(guestID)).Err()
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

func (s *CartService) guestLines(ctx context.Context, guestID string) (map[uint]int64, error) {
	raw, err := s.Redis.HGetAll(ctx, guestCartKey(guestID)).Result()
	if err != nil {
		return nil, err
	}
	lines := make(map[uint]int64, len(raw))
	for k, v := range raw {
		pid, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseInt(v, 10, 64)
		if err != nil || qty < 1 {
			continue
		}
		lines[uint(pid)] = qty
	}
	return lines, nil
}
