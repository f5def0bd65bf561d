package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/monitoring"
	"github.com/tiketku/tiketku-api/internal/repository"
)

var (
	ErrTransactionNotFound     = repository.ErrTransactionNotFound
	ErrInsufficientSeats       = repository.ErrInsufficientSeats
	ErrInvalidTransactionState = repository.ErrInvalidTransactionState
	ErrPaymentWindowExpired    = repository.ErrPaymentWindowExpired

	ErrEmptyCheckout      = errors.New("checkout has no line items")
	ErrTicketTypeMismatch = errors.New("ticket type does not belong to event")
	ErrNotTransactionUser = errors.New("transaction belongs to another user")
	ErrNotEventOrganizer  = errors.New("user is not the event organizer")
)

// compensationAttempts bounds retries of the compensating update before
// the failure is handed off to manual reconciliation.
const compensationAttempts = 3

type TransactionRepository interface {
	CreateCheckout(ctx context.Context, transaction domain.Transaction, now time.Time) (domain.Transaction, error)
	FindByID(ctx context.Context, id uint) (domain.Transaction, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Transaction, error)
	AttachProof(ctx context.Context, id uint, proofRef string, now time.Time) (domain.Transaction, error)
	MarkConfirmed(ctx context.Context, id uint) (domain.Transaction, []domain.Ticket, error)
	MarkFailed(ctx context.Context, id uint, to domain.TransactionStatus, allowedFrom []domain.TransactionStatus) (domain.Transaction, error)
	FindExpiredIDs(ctx context.Context, now time.Time) ([]uint, error)
	FindTicketsByOwner(ctx context.Context, ownerID uint) ([]domain.Ticket, error)
	HasConfirmedForEvent(ctx context.Context, userID, eventID uint) (bool, error)
}

type CheckoutEventRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type CouponResolver interface {
	Resolve(ctx context.Context, code string, userID uint, subtotal int64, event domain.Event, now time.Time) (domain.Coupon, int64, error)
}

type ProofStorage interface {
	StoreProof(ctx context.Context, data []byte) (string, error)
	ResolveProof(ref string) (string, error)
}

type CheckoutItem struct {
	TicketTypeID uint
	Quantity     int
}

type CheckoutRequest struct {
	UserID      uint
	EventID     uint
	Items       []CheckoutItem
	PointsUsed  int64
	VoucherCode string
}

type TransactionService struct {
	repo       TransactionRepository
	eventRepo  CheckoutEventRepository
	pointsRepo PointsRepository
	coupons    CouponResolver
	storage    ProofStorage
	notifier   Notifier

	paymentWindow time.Duration
}

func NewTransactionService(
	repo TransactionRepository,
	eventRepo CheckoutEventRepository,
	pointsRepo PointsRepository,
	coupons CouponResolver,
	storage ProofStorage,
	notifier Notifier,
	paymentWindow time.Duration,
) *TransactionService {
	return &TransactionService{
		repo:          repo,
		eventRepo:     eventRepo,
		pointsRepo:    pointsRepo,
		coupons:       coupons,
		storage:       storage,
		notifier:      notifier,
		paymentWindow: paymentWindow,
	}
}

// Checkout recomputes all pricing server-side from the line items and
// the current voucher/points state. Client-submitted totals are never
// trusted. Seat reservation, voucher use and points consumption are
// applied atomically with the transaction row; any failure leaves no
// partial state behind.
func (s *TransactionService) Checkout(ctx context.Context, req CheckoutRequest) (domain.Transaction, error) {
	now := time.Now()

	if len(req.Items) == 0 {
		return domain.Transaction{}, ErrEmptyCheckout
	}
	if req.PointsUsed < 0 {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	event, err := s.eventRepo.FindByID(ctx, req.EventID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	ticketTypes := make(map[uint]domain.TicketType, len(event.TicketTypes))
	for _, tt := range event.TicketTypes {
		ticketTypes[tt.ID] = tt
	}

	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, item := range req.Items {
		tt, ok := ticketTypes[item.TicketTypeID]
		if !ok {
			return domain.Transaction{}, ErrTicketTypeMismatch
		}
		if item.Quantity <= 0 {
			return domain.Transaction{}, domain.ErrInvalidAmount
		}
		if item.Quantity > tt.Available() {
			return domain.Transaction{}, ErrInsufficientSeats
		}

		items = append(items, domain.TransactionItem{
			TicketTypeID: tt.ID,
			Quantity:     item.Quantity,
			UnitPrice:    tt.Price, // frozen at purchase time
		})
	}

	subtotal, err := domain.Subtotal(items)
	if err != nil {
		return domain.Transaction{}, err
	}

	var (
		couponID *uint
		discount int64
	)
	if req.VoucherCode != "" {
		coupon, resolved, err := s.coupons.Resolve(ctx, req.VoucherCode, req.UserID, subtotal, event, now)
		if err != nil {
			return domain.Transaction{}, err
		}
		couponID = &coupon.ID
		discount = resolved
	}

	if req.PointsUsed > 0 {
		balance, err := s.pointsRepo.UsableBalance(ctx, req.UserID, now)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("s.pointsRepo.UsableBalance -> %w", err)
		}
		if req.PointsUsed > balance {
			return domain.Transaction{}, ErrInsufficientPoints
		}
	}

	total, err := domain.FinalTotal(subtotal, req.PointsUsed, discount)
	if err != nil {
		return domain.Transaction{}, err
	}

	transaction := domain.Transaction{
		UserID:          req.UserID,
		EventID:         req.EventID,
		Items:           items,
		OriginalAmount:  subtotal,
		PointsUsed:      req.PointsUsed,
		DiscountAmount:  discount,
		TotalAmount:     total,
		CouponID:        couponID,
		Status:          domain.StatusPendingPayment,
		PaymentDeadline: now.Add(s.paymentWindow),
	}

	created, err := s.repo.CreateCheckout(ctx, transaction, now)
	if err != nil {
		monitoring.CheckoutsTotal.WithLabelValues("failure").Inc()
		return domain.Transaction{}, fmt.Errorf("s.repo.CreateCheckout -> %w", err)
	}

	monitoring.CheckoutsTotal.WithLabelValues("success").Inc()

	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id uint) (domain.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return transaction, nil
}

func (s *TransactionService) GetUserTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	transactions, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return transactions, nil
}

// UploadProof stores the payment proof and advances the transaction to
// PENDING_CONFIRMATION. Past the payment deadline the upload is refused
// with ErrPaymentWindowExpired.
func (s *TransactionService) UploadProof(ctx context.Context, id, userID uint, proof []byte) (domain.Transaction, error) {
	now := time.Now()

	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if transaction.UserID != userID {
		return domain.Transaction{}, ErrNotTransactionUser
	}

	// Refuse before touching storage so a late or duplicate upload
	// never leaves an orphaned blob behind. AttachProof re-checks both
	// guards under the row lock.
	if transaction.Status != domain.StatusPendingPayment {
		return domain.Transaction{}, ErrInvalidTransactionState
	}
	if now.After(transaction.PaymentDeadline) {
		return domain.Transaction{}, ErrPaymentWindowExpired
	}

	ref, err := s.storage.StoreProof(ctx, proof)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.storage.StoreProof -> %w", err)
	}

	updated, err := s.repo.AttachProof(ctx, id, ref, now)
	if err != nil {
		return domain.Transaction{}, err
	}

	monitoring.TransitionsTotal.WithLabelValues(string(domain.StatusPendingConfirmation)).Inc()

	return updated, nil
}

// Confirm is the organizer's success verdict: tickets are issued and
// the reserved seats, points and voucher uses stay spent.
func (s *TransactionService) Confirm(ctx context.Context, id, organizerID uint) (domain.Transaction, []domain.Ticket, error) {
	if err := s.checkOrganizer(ctx, id, organizerID); err != nil {
		return domain.Transaction{}, nil, err
	}

	transaction, tickets, err := s.repo.MarkConfirmed(ctx, id)
	if err != nil {
		return domain.Transaction{}, nil, err
	}

	monitoring.TransitionsTotal.WithLabelValues(string(domain.StatusConfirmed)).Inc()
	go s.notifier.Notify(NotifyTransactionConfirmed, transaction)

	return transaction, tickets, nil
}

// Reject is the organizer's failure verdict; everything reserved at
// checkout is compensated.
func (s *TransactionService) Reject(ctx context.Context, id, organizerID uint) (domain.Transaction, error) {
	if err := s.checkOrganizer(ctx, id, organizerID); err != nil {
		return domain.Transaction{}, err
	}

	transaction, err := s.failTransaction(ctx, id, domain.StatusRejected,
		[]domain.TransactionStatus{domain.StatusPendingConfirmation})
	if err != nil {
		return domain.Transaction{}, err
	}

	go s.notifier.Notify(NotifyTransactionRejected, transaction)

	return transaction, nil
}

// Cancel is user-initiated and legal from either pre-terminal state.
func (s *TransactionService) Cancel(ctx context.Context, id, userID uint) (domain.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	if transaction.UserID != userID {
		return domain.Transaction{}, ErrNotTransactionUser
	}

	return s.failTransaction(ctx, id, domain.StatusCancelled,
		[]domain.TransactionStatus{domain.StatusPendingPayment, domain.StatusPendingConfirmation})
}

// Expire drives one overdue transaction into EXPIRED. The guard in the
// repository only fires while the row is still PENDING_PAYMENT, so a
// proof uploaded just before the deadline wins the race.
func (s *TransactionService) Expire(ctx context.Context, id uint) (domain.Transaction, error) {
	transaction, err := s.failTransaction(ctx, id, domain.StatusExpired,
		[]domain.TransactionStatus{domain.StatusPendingPayment})
	if err != nil {
		return domain.Transaction{}, err
	}

	go s.notifier.Notify(NotifyTransactionExpired, transaction)

	return transaction, nil
}

// SweepExpired expires every transaction past its payment deadline and
// returns how many were swept. Rows that advanced concurrently are
// skipped, not errors.
func (s *TransactionService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.FindExpiredIDs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindExpiredIDs -> %w", err)
	}

	swept := 0
	for _, id := range ids {
		if _, err := s.Expire(ctx, id); err != nil {
			if errors.Is(err, ErrInvalidTransactionState) {
				continue
			}
			zap.L().Error("failed to expire transaction",
				zap.Uint("transaction_id", id), zap.Error(err))
			continue
		}

		swept++
		monitoring.SweptExpiredTotal.Inc()
	}

	return swept, nil
}

func (s *TransactionService) GetUserTickets(ctx context.Context, userID uint) ([]domain.Ticket, error) {
	tickets, err := s.repo.FindTicketsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindTicketsByOwner -> %w", err)
	}

	return tickets, nil
}

func (s *TransactionService) ProofURL(ref string) (string, error) {
	return s.storage.ResolveProof(ref)
}

// failTransaction applies a failure transition with its compensation,
// retrying transient storage errors so the row cannot get stuck in a
// non-terminal state. Business errors (bad state, not found) are
// returned immediately.
func (s *TransactionService) failTransaction(ctx context.Context, id uint, to domain.TransactionStatus, from []domain.TransactionStatus) (domain.Transaction, error) {
	var lastErr error
	for attempt := 0; attempt < compensationAttempts; attempt++ {
		transaction, err := s.repo.MarkFailed(ctx, id, to, from)
		if err == nil {
			monitoring.TransitionsTotal.WithLabelValues(string(to)).Inc()
			return transaction, nil
		}

		if errors.Is(err, ErrInvalidTransactionState) || errors.Is(err, ErrTransactionNotFound) {
			return domain.Transaction{}, err
		}

		lastErr = err
		monitoring.CompensationRetriesTotal.Inc()
		zap.L().Warn("compensation attempt failed, retrying",
			zap.Uint("transaction_id", id),
			zap.String("target_status", string(to)),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	zap.L().Error("compensation exhausted retries, needs manual reconciliation",
		zap.Uint("transaction_id", id),
		zap.String("target_status", string(to)),
		zap.Error(lastErr),
	)

	return domain.Transaction{}, fmt.Errorf("s.repo.MarkFailed -> %w", lastErr)
}

func (s *TransactionService) checkOrganizer(ctx context.Context, transactionID, organizerID uint) error {
	transaction, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, transaction.EventID)
	if err != nil {
		return fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if event.OrganizerID != organizerID {
		return ErrNotEventOrganizer
	}

	return nil
}
