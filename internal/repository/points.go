package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
)

var ErrInsufficientPoints = dao.ErrInsufficientPoints

type PointsDAO interface {
	InsertGrant(ctx context.Context, grant dao.PointsGrant) (dao.PointsGrant, error)
	FindUsableGrants(ctx context.Context, userID uint, now time.Time) ([]dao.PointsGrant, error)
	UsableBalance(ctx context.Context, userID uint, now time.Time) (int64, error)
}

type PointsRepository struct {
	dao PointsDAO
}

func NewPointsRepository(dao PointsDAO) *PointsRepository {
	return &PointsRepository{
		dao: dao,
	}
}

func (r *PointsRepository) grantDomainToDAO(g domain.PointsGrant) dao.PointsGrant {
	return dao.PointsGrant{
		ID:          g.ID,
		UserID:      g.UserID,
		Amount:      g.Amount,
		Description: g.Description,
		ExpiresAt:   g.ExpiresAt,
		Consumed:    g.Consumed,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func (r *PointsRepository) grantDAOToDomain(g dao.PointsGrant) domain.PointsGrant {
	return domain.PointsGrant{
		ID:          g.ID,
		UserID:      g.UserID,
		Amount:      g.Amount,
		Description: g.Description,
		ExpiresAt:   g.ExpiresAt,
		Consumed:    g.Consumed,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func (r *PointsRepository) CreateGrant(ctx context.Context, grant domain.PointsGrant) (domain.PointsGrant, error) {
	created, err := r.dao.InsertGrant(ctx, r.grantDomainToDAO(grant))
	if err != nil {
		return domain.PointsGrant{}, fmt.Errorf("r.dao.InsertGrant -> %w", err)
	}

	return r.grantDAOToDomain(created), nil
}

func (r *PointsRepository) FindUsableGrants(ctx context.Context, userID uint, now time.Time) ([]domain.PointsGrant, error) {
	grantDAOs, err := r.dao.FindUsableGrants(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindUsableGrants -> %w", err)
	}

	grants := make([]domain.PointsGrant, len(grantDAOs))
	for i, g := range grantDAOs {
		grants[i] = r.grantDAOToDomain(g)
	}

	return grants, nil
}

func (r *PointsRepository) UsableBalance(ctx context.Context, userID uint, now time.Time) (int64, error) {
	balance, err := r.dao.UsableBalance(ctx, userID, now)
	if err != nil {
		return 0, fmt.Errorf("r.dao.UsableBalance -> %w", err)
	}

	return balance, nil
}
