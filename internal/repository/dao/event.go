package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
)

type Event struct {
	ID          uint `gorm:"primaryKey"`
	OrganizerID uint `gorm:"not null;index"`

	Title       string `gorm:"not null"`
	Description string
	Category    string    `gorm:"index"`
	Location    string    `gorm:"not null"`
	StartsAt    time.Time `gorm:"not null"`
	EndsAt      *time.Time

	TotalCapacity  int `gorm:"not null"`
	AvailableSeats int `gorm:"not null"`

	TicketTypes []TicketType `gorm:"foreignKey:EventID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TicketType struct {
	ID      uint `gorm:"primaryKey"`
	EventID uint `gorm:"not null;index"`

	Name        string `gorm:"not null"`
	Price       int64  `gorm:"not null"` // IDR
	MaxQuantity int    `gorm:"not null"`
	Sold        int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event
	result := d.db.WithContext(ctx).Preload("TicketTypes").First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event
	result := d.db.WithContext(ctx).Preload("TicketTypes").Order("starts_at").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindTicketTypeByID(ctx context.Context, id uint) (TicketType, error) {
	var tt TicketType
	result := d.db.WithContext(ctx).First(&tt, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return TicketType{}, ErrTicketTypeNotFound
		}

		return TicketType{}, result.Error
	}

	return tt, nil
}
