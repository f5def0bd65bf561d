package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository"
)

var ErrInsufficientPoints = repository.ErrInsufficientPoints

type PointsRepository interface {
	CreateGrant(ctx context.Context, grant domain.PointsGrant) (domain.PointsGrant, error)
	FindUsableGrants(ctx context.Context, userID uint, now time.Time) ([]domain.PointsGrant, error)
	UsableBalance(ctx context.Context, userID uint, now time.Time) (int64, error)
}

type PointsService struct {
	repo PointsRepository
}

func NewPointsService(repo PointsRepository) *PointsService {
	return &PointsService{
		repo: repo,
	}
}

func (s *PointsService) Grant(ctx context.Context, userID uint, amount int64, description string, expiresAt time.Time) (domain.PointsGrant, error) {
	if amount <= 0 {
		return domain.PointsGrant{}, domain.ErrInvalidAmount
	}

	grant, err := s.repo.CreateGrant(ctx, domain.PointsGrant{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return domain.PointsGrant{}, fmt.Errorf("s.repo.CreateGrant -> %w", err)
	}

	return grant, nil
}

func (s *PointsService) Balance(ctx context.Context, userID uint, now time.Time) (int64, error) {
	balance, err := s.repo.UsableBalance(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("s.repo.UsableBalance -> %w", err)
	}

	return balance, nil
}

func (s *PointsService) Grants(ctx context.Context, userID uint, now time.Time) ([]domain.PointsGrant, error) {
	grants, err := s.repo.FindUsableGrants(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindUsableGrants -> %w", err)
	}

	return grants, nil
}
