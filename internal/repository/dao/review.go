package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Review struct {
	ID      uint `gorm:"primaryKey"`
	UserID  uint `gorm:"not null;index"`
	EventID uint `gorm:"not null;index"`

	Rating  int `gorm:"not null"`
	Comment string

	CreatedAt time.Time
}

type ReviewDAO struct {
	db *gorm.DB
}

func NewReviewDAO(db *gorm.DB) *ReviewDAO {
	return &ReviewDAO{
		db: db,
	}
}

func (d *ReviewDAO) Insert(ctx context.Context, review Review) (Review, error) {
	result := d.db.WithContext(ctx).Create(&review)
	if result.Error != nil {
		return Review{}, result.Error
	}

	return review, nil
}

func (d *ReviewDAO) FindByEventID(ctx context.Context, eventID uint) ([]Review, error) {
	var reviews []Review
	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&reviews)
	if result.Error != nil {
		return nil, result.Error
	}

	return reviews, nil
}
