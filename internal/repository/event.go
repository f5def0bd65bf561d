package repository

import (
	"context"
	"fmt"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
)

var (
	ErrEventNotFound      = dao.ErrEventNotFound
	ErrTicketTypeNotFound = dao.ErrTicketTypeNotFound
)

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	FindTicketTypeByID(ctx context.Context, id uint) (dao.TicketType, error)
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) eventDomainToDAO(e domain.Event) dao.Event {
	ticketTypes := make([]dao.TicketType, len(e.TicketTypes))
	for i, tt := range e.TicketTypes {
		ticketTypes[i] = r.ticketTypeDomainToDAO(tt)
	}

	return dao.Event{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		Location:       e.Location,
		StartsAt:       e.StartsAt,
		EndsAt:         e.EndsAt,
		TotalCapacity:  e.TotalCapacity,
		AvailableSeats: e.AvailableSeats,
		TicketTypes:    ticketTypes,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r *EventRepository) eventDAOToDomain(e dao.Event) domain.Event {
	ticketTypes := make([]domain.TicketType, len(e.TicketTypes))
	for i, tt := range e.TicketTypes {
		ticketTypes[i] = r.ticketTypeDAOToDomain(tt)
	}

	return domain.Event{
		ID:             e.ID,
		OrganizerID:    e.OrganizerID,
		Title:          e.Title,
		Description:    e.Description,
		Category:       e.Category,
		Location:       e.Location,
		StartsAt:       e.StartsAt,
		EndsAt:         e.EndsAt,
		TotalCapacity:  e.TotalCapacity,
		AvailableSeats: e.AvailableSeats,
		TicketTypes:    ticketTypes,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r *EventRepository) ticketTypeDomainToDAO(tt domain.TicketType) dao.TicketType {
	return dao.TicketType{
		ID:          tt.ID,
		EventID:     tt.EventID,
		Name:        tt.Name,
		Price:       tt.Price,
		MaxQuantity: tt.MaxQuantity,
		Sold:        tt.Sold,
		CreatedAt:   tt.CreatedAt,
		UpdatedAt:   tt.UpdatedAt,
	}
}

func (r *EventRepository) ticketTypeDAOToDomain(tt dao.TicketType) domain.TicketType {
	return domain.TicketType{
		ID:          tt.ID,
		EventID:     tt.EventID,
		Name:        tt.Name,
		Price:       tt.Price,
		MaxQuantity: tt.MaxQuantity,
		Sold:        tt.Sold,
		CreatedAt:   tt.CreatedAt,
		UpdatedAt:   tt.UpdatedAt,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.eventDomainToDAO(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.eventDAOToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	event, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.eventDAOToDomain(event), nil
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	eventDAOs, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	events := make([]domain.Event, len(eventDAOs))
	for i, e := range eventDAOs {
		events[i] = r.eventDAOToDomain(e)
	}

	return events, nil
}

func (r *EventRepository) FindTicketTypeByID(ctx context.Context, id uint) (domain.TicketType, error) {
	tt, err := r.dao.FindTicketTypeByID(ctx, id)
	if err != nil {
		return domain.TicketType{}, fmt.Errorf("r.dao.FindTicketTypeByID -> %w", err)
	}

	return r.ticketTypeDAOToDomain(tt), nil
}
