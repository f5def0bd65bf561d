package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository"
)

var (
	ErrCouponNotFound   = repository.ErrCouponNotFound
	ErrCouponCodeExists = repository.ErrCouponCodeExists
	ErrCouponExhausted  = repository.ErrCouponExhausted

	ErrCouponInactive      = errors.New("voucher is inactive")
	ErrCouponNotYetValid   = errors.New("voucher is not valid yet")
	ErrCouponExpired       = errors.New("voucher has expired")
	ErrCouponNotApplicable = errors.New("voucher is not applicable to this event")
	ErrCouponMinimumNotMet = errors.New("purchase amount below voucher minimum")
)

type CouponRepository interface {
	Create(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
	FindByID(ctx context.Context, id uint) (domain.Coupon, error)
}

type CouponService struct {
	repo CouponRepository
}

func NewCouponService(repo CouponRepository) *CouponService {
	return &CouponService{
		repo: repo,
	}
}

func (s *CouponService) CreateCoupon(ctx context.Context, coupon domain.Coupon) (domain.Coupon, error) {
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if errors.Is(err, ErrCouponCodeExists) {
			return domain.Coupon{}, ErrCouponCodeExists
		}
		return domain.Coupon{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// Resolve validates a voucher code against the checkout at hand and
// returns the coupon with its resolved discount amount. Checks run in a
// fixed order and stop at the first failure so the caller can surface
// the precise reason. The use-counter increment happens later, inside
// the checkout's database transaction, never here.
func (s *CouponService) Resolve(ctx context.Context, code string, userID uint, subtotal int64, event domain.Event, now time.Time) (domain.Coupon, int64, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return domain.Coupon{}, 0, ErrCouponNotFound
		}
		return domain.Coupon{}, 0, fmt.Errorf("s.repo.FindByCode -> %w", err)
	}

	if !coupon.IsActive {
		return domain.Coupon{}, 0, ErrCouponInactive
	}

	if coupon.CurrentUses >= coupon.MaxUses {
		return domain.Coupon{}, 0, ErrCouponExhausted
	}

	if now.Before(coupon.ValidFrom) {
		return domain.Coupon{}, 0, ErrCouponNotYetValid
	}
	if now.After(coupon.ValidUntil) {
		return domain.Coupon{}, 0, ErrCouponExpired
	}

	switch coupon.Scope {
	case domain.ScopeEvent:
		if coupon.EventID == nil || *coupon.EventID != event.ID {
			return domain.Coupon{}, 0, ErrCouponNotApplicable
		}
	case domain.ScopeOrganizer:
		if coupon.OrganizerID == nil || *coupon.OrganizerID != event.OrganizerID {
			return domain.Coupon{}, 0, ErrCouponNotApplicable
		}
	}

	// Personal coupons, such as referral rewards, are usable only by
	// the user they were issued to.
	if coupon.OwnerUserID != nil && *coupon.OwnerUserID != userID {
		return domain.Coupon{}, 0, ErrCouponNotApplicable
	}

	if coupon.MinPurchase > 0 && subtotal < coupon.MinPurchase {
		return domain.Coupon{}, 0, ErrCouponMinimumNotMet
	}

	return coupon, coupon.Discount(subtotal), nil
}
