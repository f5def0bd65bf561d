package repository

import (
	"context"
	"fmt"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
)

type ReviewDAO interface {
	Insert(ctx context.Context, review dao.Review) (dao.Review, error)
	FindByEventID(ctx context.Context, eventID uint) ([]dao.Review, error)
}

type ReviewRepository struct {
	dao ReviewDAO
}

func NewReviewRepository(dao ReviewDAO) *ReviewRepository {
	return &ReviewRepository{
		dao: dao,
	}
}

func (r *ReviewRepository) reviewDAOToDomain(rv dao.Review) domain.Review {
	return domain.Review{
		ID:        rv.ID,
		UserID:    rv.UserID,
		EventID:   rv.EventID,
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, review domain.Review) (domain.Review, error) {
	created, err := r.dao.Insert(ctx, dao.Review{
		UserID:  review.UserID,
		EventID: review.EventID,
		Rating:  review.Rating,
		Comment: review.Comment,
	})
	if err != nil {
		return domain.Review{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.reviewDAOToDomain(created), nil
}

func (r *ReviewRepository) FindByEventID(ctx context.Context, eventID uint) ([]domain.Review, error) {
	reviewDAOs, err := r.dao.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEventID -> %w", err)
	}

	reviews := make([]domain.Review, len(reviewDAOs))
	for i, rv := range reviewDAOs {
		reviews[i] = r.reviewDAOToDomain(rv)
	}

	return reviews, nil
}
