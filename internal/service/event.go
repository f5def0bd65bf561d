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
	ErrEventNotFound      = repository.ErrEventNotFound
	ErrTicketTypeNotFound = repository.ErrTicketTypeNotFound

	ErrEventNotFinished = errors.New("event has not finished yet")
	ErrNotEventAttendee = errors.New("user has no confirmed transaction for this event")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindAll(ctx context.Context) ([]domain.Event, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review domain.Review) (domain.Review, error)
	FindByEventID(ctx context.Context, eventID uint) ([]domain.Review, error)
}

type ReviewEligibility interface {
	HasConfirmedForEvent(ctx context.Context, userID, eventID uint) (bool, error)
}

type EventService struct {
	repo        EventRepository
	reviews     ReviewRepository
	eligibility ReviewEligibility
}

func NewEventService(repo EventRepository, reviews ReviewRepository, eligibility ReviewEligibility) *EventService {
	return &EventService{
		repo:        repo,
		reviews:     reviews,
		eligibility: eligibility,
	}
}

// CreateEvent derives the capacity counters from the ticket tiers;
// availableSeats starts full and is only ever touched by the
// transaction lifecycle afterwards.
func (s *EventService) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if len(event.TicketTypes) == 0 {
		return domain.Event{}, errors.New("event needs at least one ticket type")
	}

	capacity := 0
	for _, tt := range event.TicketTypes {
		if tt.Price < 0 {
			return domain.Event{}, domain.ErrInvalidAmount
		}
		capacity += tt.MaxQuantity
	}
	event.TotalCapacity = capacity
	event.AvailableSeats = capacity

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return events, nil
}

// CreateReview accepts a rating only from an attendee holding a
// confirmed transaction for a finished event.
func (s *EventService) CreateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return domain.Review{}, ErrInvalidRating
	}

	event, err := s.repo.FindByID(ctx, review.EventID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if !event.Finished(time.Now()) {
		return domain.Review{}, ErrEventNotFinished
	}

	attended, err := s.eligibility.HasConfirmedForEvent(ctx, review.UserID, review.EventID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.eligibility.HasConfirmedForEvent -> %w", err)
	}
	if !attended {
		return domain.Review{}, ErrNotEventAttendee
	}

	created, err := s.reviews.Create(ctx, review)
	if err != nil {
		return domain.Review{}, fmt.Errorf("s.reviews.Create -> %w", err)
	}

	return created, nil
}

func (s *EventService) GetEventReviews(ctx context.Context, eventID uint) ([]domain.Review, error) {
	reviews, err := s.reviews.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.reviews.FindByEventID -> %w", err)
	}

	return reviews, nil
}
