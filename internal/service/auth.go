package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = errors.New("wrong password")
	ErrReferrerUnknown = errors.New("referral code not recognized")
)

const (
	referralRewardPoints = 10000 // IDR-equivalent points for the referrer
	referralRewardExpiry = 90 * 24 * time.Hour
	referralCouponValue  = 10 // percent off for the referred user
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByReferralCode(ctx context.Context, code string) (domain.User, error)
}

type AuthService struct {
	repo    AuthUserRepository
	points  PointsRepository
	coupons CouponRepository
}

func NewAuthService(repo AuthUserRepository, points PointsRepository, coupons CouponRepository) *AuthService {
	return &AuthService{
		repo:    repo,
		points:  points,
		coupons: coupons,
	}
}

// Signup registers the user and, when a referral code was supplied,
// rewards the referrer with a points grant and issues the new user a
// one-shot referral discount coupon. Reward failures are logged, not
// surfaced; the account itself is already created.
func (s *AuthService) Signup(ctx context.Context, user domain.User, referralCode string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = string(hash)
	user.ReferralCode = newReferralCode()

	var referrer domain.User
	if referralCode != "" {
		referrer, err = s.repo.FindByReferralCode(ctx, strings.ToUpper(strings.TrimSpace(referralCode)))
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domain.User{}, ErrReferrerUnknown
			}
			return domain.User{}, fmt.Errorf("s.repo.FindByReferralCode -> %w", err)
		}
		user.ReferredByID = &referrer.ID
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	if user.ReferredByID != nil {
		s.grantReferralRewards(ctx, referrer, created)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

func (s *AuthService) grantReferralRewards(ctx context.Context, referrer, referred domain.User) {
	now := time.Now()

	_, err := s.points.CreateGrant(ctx, domain.PointsGrant{
		UserID:      referrer.ID,
		Amount:      referralRewardPoints,
		Description: fmt.Sprintf("referral reward for inviting %v", referred.Email),
		ExpiresAt:   now.Add(referralRewardExpiry),
	})
	if err != nil {
		zap.L().Error("failed to grant referral points",
			zap.Uint("referrer_id", referrer.ID), zap.Error(err))
	}

	_, err = s.coupons.Create(ctx, domain.Coupon{
		Code:          "REF-" + referred.ReferralCode,
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: referralCouponValue,
		Scope:         domain.ScopeSystem,
		OwnerUserID:   &referred.ID,
		MaxUses:       1,
		ValidFrom:     now,
		ValidUntil:    now.Add(referralRewardExpiry),
		IsActive:      true,
	})
	if err != nil {
		zap.L().Error("failed to issue referral coupon",
			zap.Uint("user_id", referred.ID), zap.Error(err))
	}
}

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
