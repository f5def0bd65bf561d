package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/repository/dao"
)

var (
	ErrTransactionNotFound     = dao.ErrTransactionNotFound
	ErrInsufficientSeats       = dao.ErrInsufficientSeats
	ErrInvalidTransactionState = dao.ErrInvalidTransactionState
	ErrPaymentWindowExpired    = dao.ErrPaymentWindowExpired
)

type TransactionDAO interface {
	InsertCheckout(ctx context.Context, transaction dao.Transaction, now time.Time) (dao.Transaction, error)
	FindByID(ctx context.Context, id uint) (dao.Transaction, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Transaction, error)
	AttachProof(ctx context.Context, id uint, proofRef string, now time.Time) (dao.Transaction, error)
	MarkConfirmed(ctx context.Context, id uint) (dao.Transaction, []dao.Ticket, error)
	MarkFailed(ctx context.Context, id uint, to string, allowedFrom []string) (dao.Transaction, error)
	FindExpiredIDs(ctx context.Context, now time.Time) ([]uint, error)
	FindTicketsByOwner(ctx context.Context, ownerID uint) ([]dao.Ticket, error)
	HasConfirmedForEvent(ctx context.Context, userID, eventID uint) (bool, error)
}

type TransactionRepository struct {
	dao TransactionDAO
}

func NewTransactionRepository(dao TransactionDAO) *TransactionRepository {
	return &TransactionRepository{
		dao: dao,
	}
}

func (r *TransactionRepository) transactionDomainToDAO(t domain.Transaction) dao.Transaction {
	items := make([]dao.TransactionItem, len(t.Items))
	for i, item := range t.Items {
		items[i] = dao.TransactionItem{
			ID:            item.ID,
			TransactionID: item.TransactionID,
			TicketTypeID:  item.TicketTypeID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
		}
	}

	return dao.Transaction{
		ID:              t.ID,
		UserID:          t.UserID,
		EventID:         t.EventID,
		OriginalAmount:  t.OriginalAmount,
		PointsUsed:      t.PointsUsed,
		DiscountAmount:  t.DiscountAmount,
		TotalAmount:     t.TotalAmount,
		CouponID:        t.CouponID,
		Status:          string(t.Status),
		PaymentDeadline: t.PaymentDeadline,
		PaymentProofRef: t.PaymentProofRef,
		Items:           items,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (r *TransactionRepository) transactionDAOToDomain(t dao.Transaction) domain.Transaction {
	items := make([]domain.TransactionItem, len(t.Items))
	for i, item := range t.Items {
		items[i] = domain.TransactionItem{
			ID:            item.ID,
			TransactionID: item.TransactionID,
			TicketTypeID:  item.TicketTypeID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
		}
	}

	return domain.Transaction{
		ID:              t.ID,
		UserID:          t.UserID,
		EventID:         t.EventID,
		OriginalAmount:  t.OriginalAmount,
		PointsUsed:      t.PointsUsed,
		DiscountAmount:  t.DiscountAmount,
		TotalAmount:     t.TotalAmount,
		CouponID:        t.CouponID,
		Status:          domain.TransactionStatus(t.Status),
		PaymentDeadline: t.PaymentDeadline,
		PaymentProofRef: t.PaymentProofRef,
		Items:           items,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (r *TransactionRepository) ticketDAOToDomain(t dao.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:            t.ID,
		TransactionID: t.TransactionID,
		TicketTypeID:  t.TicketTypeID,
		OwnerID:       t.OwnerID,
		Code:          t.Code,
		Status:        domain.TicketStatus(t.Status),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// CreateCheckout persists the transaction and atomically applies its
// side effects (seat reservation, voucher use, points consumption).
func (r *TransactionRepository) CreateCheckout(ctx context.Context, transaction domain.Transaction, now time.Time) (domain.Transaction, error) {
	created, err := r.dao.InsertCheckout(ctx, r.transactionDomainToDAO(transaction), now)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.InsertCheckout -> %w", err)
	}

	return r.transactionDAOToDomain(created), nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uint) (domain.Transaction, error) {
	transaction, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.transactionDAOToDomain(transaction), nil
}

func (r *TransactionRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	transactionDAOs, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	transactions := make([]domain.Transaction, len(transactionDAOs))
	for i, t := range transactionDAOs {
		transactions[i] = r.transactionDAOToDomain(t)
	}

	return transactions, nil
}

func (r *TransactionRepository) AttachProof(ctx context.Context, id uint, proofRef string, now time.Time) (domain.Transaction, error) {
	transaction, err := r.dao.AttachProof(ctx, id, proofRef, now)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.AttachProof -> %w", err)
	}

	return r.transactionDAOToDomain(transaction), nil
}

func (r *TransactionRepository) MarkConfirmed(ctx context.Context, id uint) (domain.Transaction, []domain.Ticket, error) {
	transaction, ticketDAOs, err := r.dao.MarkConfirmed(ctx, id)
	if err != nil {
		return domain.Transaction{}, nil, fmt.Errorf("r.dao.MarkConfirmed -> %w", err)
	}

	tickets := make([]domain.Ticket, len(ticketDAOs))
	for i, t := range ticketDAOs {
		tickets[i] = r.ticketDAOToDomain(t)
	}

	return r.transactionDAOToDomain(transaction), tickets, nil
}

func (r *TransactionRepository) MarkFailed(ctx context.Context, id uint, to domain.TransactionStatus, allowedFrom []domain.TransactionStatus) (domain.Transaction, error) {
	from := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		from[i] = string(s)
	}

	transaction, err := r.dao.MarkFailed(ctx, id, string(to), from)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("r.dao.MarkFailed -> %w", err)
	}

	return r.transactionDAOToDomain(transaction), nil
}

func (r *TransactionRepository) FindExpiredIDs(ctx context.Context, now time.Time) ([]uint, error) {
	ids, err := r.dao.FindExpiredIDs(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindExpiredIDs -> %w", err)
	}

	return ids, nil
}

func (r *TransactionRepository) FindTicketsByOwner(ctx context.Context, ownerID uint) ([]domain.Ticket, error) {
	ticketDAOs, err := r.dao.FindTicketsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTicketsByOwner -> %w", err)
	}

	tickets := make([]domain.Ticket, len(ticketDAOs))
	for i, t := range ticketDAOs {
		tickets[i] = r.ticketDAOToDomain(t)
	}

	return tickets, nil
}

func (r *TransactionRepository) HasConfirmedForEvent(ctx context.Context, userID, eventID uint) (bool, error) {
	ok, err := r.dao.HasConfirmedForEvent(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("r.dao.HasConfirmedForEvent -> %w", err)
	}

	return ok, nil
}
