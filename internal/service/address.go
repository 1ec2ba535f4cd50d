package service

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/lock"
)

// AddressService keeps at most one default address per user. Writes for one
// user are serialized under the address:<user id> lock.
type AddressService struct {
	Repo   *repo.GormRepo
	Locker Locker
}

func (s *AddressService) write(ctx context.Context, userID uint, fn func(tx *repo.GormRepo) error) error {
	return s.Locker.WithLock(ctx, lock.Key("address", userID), func(ctx context.Context) error {
		return s.Repo.Transaction(ctx, fn)
	})
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Create(ctx context.Context, userID uint, req transport.AddressRequest) (*models.Address, error) {
	a := &models.Address{
		UserID:    userID,
		Name:      req.Name,
		Recipient: req.Recipient,
		Phone:     req.Phone,
		ZipCode:   req.ZipCode,
		Line1:     req.Line1,
		Line2:     req.Line2,
		IsDefault: req.IsDefault,
	}
	err := s.write(ctx, userID, func(tx *repo.GormRepo) error {
		n, err := tx.CountAddresses(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := tx.ClearDefaultAddress(ctx, userID); err != nil {
				return err
			}
		}
		return tx.CreateAddress(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id uint, req transport.AddressRequest) (*models.Address, error) {
	var out *models.Address
	err := s.write(ctx, userID, func(tx *repo.GormRepo) error {
		a, err := tx.GetAddress(ctx, userID, id)
		if err != nil {
			return mapRepoErr(err, "address")
		}
		a.Name, a.Recipient, a.Phone = req.Name, req.Recipient, req.Phone
		a.ZipCode, a.Line1, a.Line2 = req.ZipCode, req.Line1, req.Line2
		if req.IsDefault && !a.IsDefault {
			if err := tx.ClearDefaultAddress(ctx, userID); err != nil {
				return err
			}
			a.IsDefault = true
		}
		out = a
		return tx.SaveAddress(ctx, a)
	})
	return out, err
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id uint) (*models.Address, error) {
	var out *models.Address
	err := s.write(ctx, userID, func(tx *repo.GormRepo) error {
		a, err := tx.GetAddress(ctx, userID, id)
		if err != nil {
			return mapRepoErr(err, "address")
		}
		if a.IsDefault {
			out = a
			return nil
		}
		if err := tx.ClearDefaultAddress(ctx, userID); err != nil {
			return err
		}
		a.IsDefault = true
		out = a
		return tx.SaveAddress(ctx, a)
	})
	return out, err
}

// Delete soft-deletes the address; when it was the default, the most recent
// remaining address is promoted.
func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	return s.write(ctx, userID, func(tx *repo.GormRepo) error {
		a, err := tx.GetAddress(ctx, userID, id)
		if err != nil {
			return mapRepoErr(err, "address")
		}
		if err := tx.DeleteAddress(ctx, a); err != nil {
			return err
		}
		if !a.IsDefault {
			return nil
		}
		next, err := tx.LatestAddress(ctx, userID)
		if err != nil {
			if isNotFound(mapRepoErr(err, "address")) {
				return nil
			}
			return err
		}
		next.IsDefault = true
		return tx.SaveAddress(ctx, next)
	})
}
