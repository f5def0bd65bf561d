package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInsufficientSeats       = errors.New("insufficient seats")
	ErrInvalidTransactionState = errors.New("invalid transaction state")
	ErrPaymentWindowExpired    = errors.New("payment window expired")
)

// Status values mirror the domain transition table. The dao only ever
// changes them through guarded updates under row locks.
const (
	StatusPendingPayment      = "PENDING_PAYMENT"
	StatusPendingConfirmation = "PENDING_CONFIRMATION"
	StatusConfirmed           = "CONFIRMED"
	StatusRejected            = "REJECTED"
	StatusExpired             = "EXPIRED"
	StatusCancelled           = "CANCELLED"
)

type Transaction struct {
	ID      uint `gorm:"primaryKey"`
	UserID  uint `gorm:"not null;index"`
	EventID uint `gorm:"not null;index"`

	OriginalAmount int64 `gorm:"not null"`
	PointsUsed     int64 `gorm:"not null;default:0"`
	DiscountAmount int64 `gorm:"not null;default:0"`
	TotalAmount    int64 `gorm:"not null"`

	CouponID *uint `gorm:"index"`

	Status          string    `gorm:"not null;index"`
	PaymentDeadline time.Time `gorm:"not null;index"`
	PaymentProofRef string

	Items []TransactionItem `gorm:"foreignKey:TransactionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TransactionItem struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID uint `gorm:"not null;index"`
	TicketTypeID  uint `gorm:"not null"`

	Quantity  int   `gorm:"not null"`
	UnitPrice int64 `gorm:"not null"`
}

type Ticket struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID uint `gorm:"not null;index"`
	TicketTypeID  uint `gorm:"not null"`
	OwnerID       uint `gorm:"not null;index"`

	Code   string `gorm:"unique;not null"`
	Status string `gorm:"not null;default:active"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TransactionDAO struct {
	db *gorm.DB
}

func NewTransactionDAO(db *gorm.DB) *TransactionDAO {
	return &TransactionDAO{
		db: db,
	}
}

// InsertCheckout persists the transaction with its line items and, in
// the same database transaction, reserves seats, increments the voucher
// use counter and consumes points. Any failure rolls everything back.
func (d *TransactionDAO) InsertCheckout(ctx context.Context, transaction Transaction, now time.Time) (Transaction, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		var totalQuantity int
		for _, item := range transaction.Items {
			totalQuantity += item.Quantity

			// Conditional update so two checkouts for the same last
			// seats cannot both succeed.
			result := tx.Model(&TicketType{}).
				Where("id = ? AND max_quantity - sold >= ?", item.TicketTypeID, item.Quantity).
				UpdateColumn("sold", gorm.Expr("sold + ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrInsufficientSeats
			}
		}

		result := tx.Model(&Event{}).
			Where("id = ? AND available_seats >= ?", transaction.EventID, totalQuantity).
			UpdateColumn("available_seats", gorm.Expr("available_seats - ?", totalQuantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientSeats
		}

		if transaction.CouponID != nil {
			if err := incrementCouponUses(tx, *transaction.CouponID); err != nil {
				return err
			}
		}

		if err := reservePoints(tx, transaction.UserID, transaction.ID, transaction.PointsUsed, now); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	return transaction, nil
}

func (d *TransactionDAO) FindByID(ctx context.Context, id uint) (Transaction, error) {
	var transaction Transaction
	result := d.db.WithContext(ctx).Preload("Items").First(&transaction, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Transaction{}, ErrTransactionNotFound
		}

		return Transaction{}, result.Error
	}

	return transaction, nil
}

func (d *TransactionDAO) FindByUserID(ctx context.Context, userID uint) ([]Transaction, error) {
	var transactions []Transaction
	result := d.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&transactions)
	if result.Error != nil {
		return nil, result.Error
	}

	return transactions, nil
}

// AttachProof moves PENDING_PAYMENT -> PENDING_CONFIRMATION, recording
// the uploaded proof reference. The row is locked so a concurrent sweep
// cannot expire a transaction whose proof arrived before the deadline.
func (d *TransactionDAO) AttachProof(ctx context.Context, id uint, proofRef string, now time.Time) (Transaction, error) {
	var transaction Transaction
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &transaction); err != nil {
			return err
		}

		if transaction.Status != StatusPendingPayment {
			return ErrInvalidTransactionState
		}
		if now.After(transaction.PaymentDeadline) {
			return ErrPaymentWindowExpired
		}

		transaction.Status = StatusPendingConfirmation
		transaction.PaymentProofRef = proofRef

		return tx.Model(&Transaction{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":            StatusPendingConfirmation,
				"payment_proof_ref": proofRef,
			}).Error
	})
	if err != nil {
		return Transaction{}, err
	}

	return transaction, nil
}

// MarkConfirmed moves PENDING_CONFIRMATION -> CONFIRMED and issues one
// ticket per purchased seat. Seats, points and voucher uses stay spent.
func (d *TransactionDAO) MarkConfirmed(ctx context.Context, id uint) (Transaction, []Ticket, error) {
	var (
		transaction Transaction
		tickets     []Ticket
	)
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &transaction); err != nil {
			return err
		}

		if transaction.Status != StatusPendingConfirmation {
			return ErrInvalidTransactionState
		}

		if err := tx.Model(&Transaction{}).Where("id = ?", id).
			UpdateColumn("status", StatusConfirmed).Error; err != nil {
			return err
		}
		transaction.Status = StatusConfirmed

		for _, item := range transaction.Items {
			for i := 0; i < item.Quantity; i++ {
				tickets = append(tickets, Ticket{
					TransactionID: transaction.ID,
					TicketTypeID:  item.TicketTypeID,
					OwnerID:       transaction.UserID,
					Code:          uuid.NewString(),
					Status:        "active",
				})
			}
		}
		if len(tickets) > 0 {
			if err := tx.Create(&tickets).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Transaction{}, nil, err
	}

	return transaction, tickets, nil
}

// MarkFailed drives the transaction into a failure terminal status
// (REJECTED, EXPIRED or CANCELLED) and compensates in the same database
// transaction: seats restored, voucher use decremented, points released.
// The status guard makes the operation safe against concurrent actors
// on the same row; a transaction no longer in an allowed source status
// fails with ErrInvalidTransactionState and mutates nothing.
func (d *TransactionDAO) MarkFailed(ctx context.Context, id uint, to string, allowedFrom []string) (Transaction, error) {
	var transaction Transaction
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &transaction); err != nil {
			return err
		}

		allowed := false
		for _, from := range allowedFrom {
			if transaction.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidTransactionState
		}

		if err := tx.Model(&Transaction{}).Where("id = ?", id).
			UpdateColumn("status", to).Error; err != nil {
			return err
		}
		transaction.Status = to

		var totalQuantity int
		for _, item := range transaction.Items {
			totalQuantity += item.Quantity

			if err := tx.Model(&TicketType{}).
				Where("id = ?", item.TicketTypeID).
				UpdateColumn("sold", gorm.Expr("sold - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&Event{}).
			Where("id = ?", transaction.EventID).
			UpdateColumn("available_seats", gorm.Expr("available_seats + ?", totalQuantity)).Error; err != nil {
			return err
		}

		if transaction.CouponID != nil {
			if err := decrementCouponUses(tx, *transaction.CouponID); err != nil {
				return err
			}
		}

		if err := releasePoints(tx, transaction.ID); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return Transaction{}, err
	}

	return transaction, nil
}

// FindExpiredIDs returns transactions still awaiting payment past their
// deadline. The actual expiry goes through MarkFailed so the status
// guard applies per row.
func (d *TransactionDAO) FindExpiredIDs(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	result := d.db.WithContext(ctx).Model(&Transaction{}).
		Where("status = ? AND payment_deadline < ?", StatusPendingPayment, now).
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

func (d *TransactionDAO) FindTicketsByOwner(ctx context.Context, ownerID uint) ([]Ticket, error) {
	var tickets []Ticket
	result := d.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TransactionDAO) HasConfirmedForEvent(ctx context.Context, userID, eventID uint) (bool, error) {
	var count int64
	result := d.db.WithContext(ctx).Model(&Transaction{}).
		Where("user_id = ? AND event_id = ? AND status = ?", userID, eventID, StatusConfirmed).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func lockTransaction(tx *gorm.DB, id uint, dest *Transaction) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		First(dest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}

		return err
	}

	return nil
}
