package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiketku/tiketku-api/internal/domain"
)

// checkoutFixture backs the transaction repository and event repository
// fakes with one shared, mutex-guarded state so concurrent checkouts
// contend for the same seats, the way rows do under the real database
// guards.
type checkoutFixture struct {
	mu           sync.Mutex
	event        domain.Event
	transactions map[uint]*domain.Transaction
	tickets      []domain.Ticket
	nextID       uint

	// markFailedErrs scripts transient failures returned before
	// MarkFailed succeeds, for the retry tests.
	markFailedErrs []error
}

func newCheckoutFixture() *checkoutFixture {
	return &checkoutFixture{
		event: domain.Event{
			ID:             7,
			OrganizerID:    3,
			Title:          "Java Jazz Festival",
			TotalCapacity:  110,
			AvailableSeats: 110,
			TicketTypes: []domain.TicketType{
				{ID: 1, EventID: 7, Name: "Regular", Price: 150000, MaxQuantity: 100},
				{ID: 2, EventID: 7, Name: "VIP", Price: 500000, MaxQuantity: 10},
			},
		},
		transactions: map[uint]*domain.Transaction{},
	}
}

func (f *checkoutFixture) snapshotEvent() domain.Event {
	event := f.event
	event.TicketTypes = make([]domain.TicketType, len(f.event.TicketTypes))
	copy(event.TicketTypes, f.event.TicketTypes)
	return event
}

func (f *checkoutFixture) CreateCheckout(_ context.Context, transaction domain.Transaction, _ time.Time) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, item := range transaction.Items {
		idx := -1
		for i, tt := range f.event.TicketTypes {
			if tt.ID == item.TicketTypeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.Transaction{}, ErrTicketTypeMismatch
		}
		if f.event.TicketTypes[idx].Available() < item.Quantity {
			return domain.Transaction{}, ErrInsufficientSeats
		}
	}

	for _, item := range transaction.Items {
		for i := range f.event.TicketTypes {
			if f.event.TicketTypes[i].ID == item.TicketTypeID {
				f.event.TicketTypes[i].Sold += item.Quantity
				f.event.AvailableSeats -= item.Quantity
			}
		}
	}

	f.nextID++
	transaction.ID = f.nextID
	stored := transaction
	f.transactions[transaction.ID] = &stored

	return transaction, nil
}

func (f *checkoutFixture) FindByID(_ context.Context, id uint) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	transaction, ok := f.transactions[id]
	if !ok {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	return *transaction, nil
}

func (f *checkoutFixture) FindByUserID(_ context.Context, userID uint) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Transaction
	for _, transaction := range f.transactions {
		if transaction.UserID == userID {
			out = append(out, *transaction)
		}
	}
	return out, nil
}

func (f *checkoutFixture) AttachProof(_ context.Context, id uint, proofRef string, now time.Time) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	transaction, ok := f.transactions[id]
	if !ok {
		return domain.Transaction{}, ErrTransactionNotFound
	}
	if transaction.Status != domain.StatusPendingPayment {
		return domain.Transaction{}, ErrInvalidTransactionState
	}
	if now.After(transaction.PaymentDeadline) {
		return domain.Transaction{}, ErrPaymentWindowExpired
	}

	transaction.Status = domain.StatusPendingConfirmation
	transaction.PaymentProofRef = proofRef
	return *transaction, nil
}

func (f *checkoutFixture) MarkConfirmed(_ context.Context, id uint) (domain.Transaction, []domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	transaction, ok := f.transactions[id]
	if !ok {
		return domain.Transaction{}, nil, ErrTransactionNotFound
	}
	if transaction.Status != domain.StatusPendingConfirmation {
		return domain.Transaction{}, nil, ErrInvalidTransactionState
	}

	transaction.Status = domain.StatusConfirmed

	var issued []domain.Ticket
	for _, item := range transaction.Items {
		for seat := 0; seat < item.Quantity; seat++ {
			ticket := domain.Ticket{
				ID:            uint(len(f.tickets) + 1),
				TransactionID: transaction.ID,
				TicketTypeID:  item.TicketTypeID,
				OwnerID:       transaction.UserID,
				Code:          fmt.Sprintf("code-%d-%d", transaction.ID, len(f.tickets)+1),
				Status:        domain.TicketActive,
			}
			f.tickets = append(f.tickets, ticket)
			issued = append(issued, ticket)
		}
	}

	return *transaction, issued, nil
}

func (f *checkoutFixture) MarkFailed(_ context.Context, id uint, to domain.TransactionStatus, allowedFrom []domain.TransactionStatus) (domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.markFailedErrs) > 0 {
		err := f.markFailedErrs[0]
		f.markFailedErrs = f.markFailedErrs[1:]
		return domain.Transaction{}, err
	}

	transaction, ok := f.transactions[id]
	if !ok {
		return domain.Transaction{}, ErrTransactionNotFound
	}

	legal := false
	for _, from := range allowedFrom {
		if transaction.Status == from {
			legal = true
			break
		}
	}
	if !legal {
		return domain.Transaction{}, ErrInvalidTransactionState
	}

	transaction.Status = to

	// Compensation: put the reserved seats back.
	for _, item := range transaction.Items {
		for i := range f.event.TicketTypes {
			if f.event.TicketTypes[i].ID == item.TicketTypeID {
				f.event.TicketTypes[i].Sold -= item.Quantity
				f.event.AvailableSeats += item.Quantity
			}
		}
	}

	return *transaction, nil
}

func (f *checkoutFixture) FindExpiredIDs(_ context.Context, now time.Time) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []uint
	for id, transaction := range f.transactions {
		if transaction.Status == domain.StatusPendingPayment && transaction.PaymentDeadline.Before(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *checkoutFixture) FindTicketsByOwner(_ context.Context, ownerID uint) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.OwnerID == ownerID {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (f *checkoutFixture) HasConfirmedForEvent(_ context.Context, userID, eventID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, transaction := range f.transactions {
		if transaction.UserID == userID && transaction.EventID == eventID && transaction.Status == domain.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

type fixtureEventRepo struct {
	fix *checkoutFixture
}

func (r *fixtureEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	r.fix.mu.Lock()
	defer r.fix.mu.Unlock()

	if id != r.fix.event.ID {
		return domain.Event{}, ErrEventNotFound
	}
	return r.fix.snapshotEvent(), nil
}

type fakeProofStore struct {
	mu     sync.Mutex
	proofs map[string][]byte
}

func (s *fakeProofStore) StoreProof(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proofs == nil {
		s.proofs = map[string][]byte{}
	}
	ref := fmt.Sprintf("proof-%d", len(s.proofs)+1)
	s.proofs[ref] = data
	return ref, nil
}

func (s *fakeProofStore) ResolveProof(ref string) (string, error) {
	return "/uploads/proofs/" + ref, nil
}

func (s *fakeProofStore) stored() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.proofs)
}

type noopNotifier struct{}

func (noopNotifier) Notify(NotificationKind, domain.Transaction) {}

func newCheckoutService(fix *checkoutFixture, points *fakePointsRepo, coupons ...domain.Coupon) *TransactionService {
	return NewTransactionService(
		fix,
		&fixtureEventRepo{fix: fix},
		points,
		NewCouponService(newFakeCouponRepo(coupons...)),
		&fakeProofStore{},
		noopNotifier{},
		2*time.Hour,
	)
}

func TestTransactionServiceCheckout(t *testing.T) {
	now := time.Now()
	voucher := domain.Coupon{
		ID:            1,
		Code:          "SAVE10",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: 10,
		Scope:         domain.ScopeSystem,
		MaxUses:       100,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	}

	t.Run("prices the order server-side", func(t *testing.T) {
		fix := newCheckoutFixture()
		points := &fakePointsRepo{grants: []domain.PointsGrant{
			{ID: 1, UserID: 42, Amount: 30000, ExpiresAt: now.Add(24 * time.Hour)},
		}, nextID: 1}
		svc := newCheckoutService(fix, points, voucher)

		transaction, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items: []CheckoutItem{
				{TicketTypeID: 1, Quantity: 2}, // 2 x 150000
				{TicketTypeID: 2, Quantity: 1}, // 1 x 500000
			},
			PointsUsed:  20000,
			VoucherCode: "SAVE10",
		})
		require.NoError(t, err)

		assert.Equal(t, int64(800000), transaction.OriginalAmount)
		assert.Equal(t, int64(80000), transaction.DiscountAmount)
		assert.Equal(t, int64(20000), transaction.PointsUsed)
		assert.Equal(t, int64(700000), transaction.TotalAmount)
		assert.Equal(t, domain.StatusPendingPayment, transaction.Status)
		require.NotNil(t, transaction.CouponID)
		assert.Equal(t, voucher.ID, *transaction.CouponID)
		assert.WithinDuration(t, now.Add(2*time.Hour), transaction.PaymentDeadline, 5*time.Second)

		// Unit prices frozen on the line items.
		require.Len(t, transaction.Items, 2)
		assert.Equal(t, int64(150000), transaction.Items[0].UnitPrice)
		assert.Equal(t, int64(500000), transaction.Items[1].UnitPrice)

		// Seats reserved immediately.
		assert.Equal(t, 2, fix.event.TicketTypes[0].Sold)
		assert.Equal(t, 1, fix.event.TicketTypes[1].Sold)
	})

	t.Run("rejects empty checkout", func(t *testing.T) {
		svc := newCheckoutService(newCheckoutFixture(), &fakePointsRepo{})

		_, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: 42, EventID: 7})
		require.ErrorIs(t, err, ErrEmptyCheckout)
	})

	t.Run("rejects ticket type from another event", func(t *testing.T) {
		svc := newCheckoutService(newCheckoutFixture(), &fakePointsRepo{})

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 999, Quantity: 1}},
		})
		require.ErrorIs(t, err, ErrTicketTypeMismatch)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := newCheckoutService(newCheckoutFixture(), &fakePointsRepo{})

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 0}},
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("rejects quantity beyond availability", func(t *testing.T) {
		fix := newCheckoutFixture()
		svc := newCheckoutService(fix, &fakePointsRepo{})

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 2, Quantity: 11}},
		})
		require.ErrorIs(t, err, ErrInsufficientSeats)
		assert.Equal(t, 0, fix.event.TicketTypes[1].Sold, "no partial reservation")
	})

	t.Run("rejects points beyond usable balance", func(t *testing.T) {
		fix := newCheckoutFixture()
		points := &fakePointsRepo{grants: []domain.PointsGrant{
			{ID: 1, UserID: 42, Amount: 10000, ExpiresAt: now.Add(24 * time.Hour)},
		}, nextID: 1}
		svc := newCheckoutService(fix, points)

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:     42,
			EventID:    7,
			Items:      []CheckoutItem{{TicketTypeID: 1, Quantity: 1}},
			PointsUsed: 10001,
		})
		require.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Equal(t, 0, fix.event.TicketTypes[0].Sold, "no seats reserved on failure")
	})

	t.Run("rejects another user's personal voucher", func(t *testing.T) {
		owner := uint(5)
		personal := voucher
		personal.OwnerUserID = &owner
		personal.MaxUses = 1
		fix := newCheckoutFixture()
		svc := newCheckoutService(fix, &fakePointsRepo{}, personal)

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:      42,
			EventID:     7,
			Items:       []CheckoutItem{{TicketTypeID: 1, Quantity: 1}},
			VoucherCode: "SAVE10",
		})
		require.ErrorIs(t, err, ErrCouponNotApplicable)
		assert.Equal(t, 0, fix.event.TicketTypes[0].Sold)
		assert.Empty(t, fix.transactions)
	})

	t.Run("voucher failure leaves no partial state", func(t *testing.T) {
		fix := newCheckoutFixture()
		expired := voucher
		expired.ValidUntil = now.Add(-time.Minute)
		svc := newCheckoutService(fix, &fakePointsRepo{}, expired)

		_, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:      42,
			EventID:     7,
			Items:       []CheckoutItem{{TicketTypeID: 1, Quantity: 2}},
			VoucherCode: "SAVE10",
		})
		require.ErrorIs(t, err, ErrCouponExpired)
		assert.Equal(t, 0, fix.event.TicketTypes[0].Sold)
		assert.Empty(t, fix.transactions)
	})
}

func TestTransactionServiceCheckoutLastSeatRace(t *testing.T) {
	fix := newCheckoutFixture()
	fix.event.TicketTypes[1].Sold = 9 // one VIP seat left
	fix.event.AvailableSeats = 101
	svc := newCheckoutService(fix, &fakePointsRepo{})

	const contenders = 16

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), CheckoutRequest{
				UserID:  userID,
				EventID: 7,
				Items:   []CheckoutItem{{TicketTypeID: 2, Quantity: 1}},
			})
			results <- err
		}(uint(100 + i))
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, ErrInsufficientSeats)
		lost++
	}

	assert.Equal(t, 1, won, "exactly one contender gets the last seat")
	assert.Equal(t, contenders-1, lost)
	assert.Equal(t, 10, fix.event.TicketTypes[1].Sold, "never oversold")
}

func TestTransactionServiceUploadProof(t *testing.T) {
	setup := func(t *testing.T) (*TransactionService, *checkoutFixture, *fakeProofStore, domain.Transaction) {
		t.Helper()
		fix := newCheckoutFixture()
		store := &fakeProofStore{}
		svc := NewTransactionService(
			fix,
			&fixtureEventRepo{fix: fix},
			&fakePointsRepo{},
			NewCouponService(newFakeCouponRepo()),
			store,
			noopNotifier{},
			2*time.Hour,
		)
		transaction, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
		return svc, fix, store, transaction
	}

	t.Run("moves the transaction to pending confirmation", func(t *testing.T) {
		svc, _, store, transaction := setup(t)

		updated, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPendingConfirmation, updated.Status)
		assert.NotEmpty(t, updated.PaymentProofRef)
		assert.Equal(t, 1, store.stored())
	})

	t.Run("refused for another user", func(t *testing.T) {
		svc, _, store, transaction := setup(t)

		_, err := svc.UploadProof(context.Background(), transaction.ID, 43, []byte("receipt"))
		require.ErrorIs(t, err, ErrNotTransactionUser)
		assert.Equal(t, 0, store.stored())
	})

	t.Run("refused past the payment deadline", func(t *testing.T) {
		svc, fix, store, transaction := setup(t)
		fix.mu.Lock()
		fix.transactions[transaction.ID].PaymentDeadline = time.Now().Add(-time.Minute)
		fix.mu.Unlock()

		_, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.ErrorIs(t, err, ErrPaymentWindowExpired)
		assert.Equal(t, 0, store.stored(), "late upload must not reach storage")
	})

	t.Run("refused twice", func(t *testing.T) {
		svc, _, store, transaction := setup(t)

		_, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.NoError(t, err)

		_, err = svc.UploadProof(context.Background(), transaction.ID, 42, []byte("another"))
		require.ErrorIs(t, err, ErrInvalidTransactionState)
		assert.Equal(t, 1, store.stored(), "duplicate upload must not reach storage")
	})
}

func TestTransactionServiceConfirmAndReject(t *testing.T) {
	setup := func(t *testing.T) (*TransactionService, *checkoutFixture, domain.Transaction) {
		t.Helper()
		fix := newCheckoutFixture()
		svc := newCheckoutService(fix, &fakePointsRepo{})
		transaction, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 3}},
		})
		require.NoError(t, err)
		return svc, fix, transaction
	}

	t.Run("confirm issues one ticket per seat", func(t *testing.T) {
		svc, _, transaction := setup(t)
		_, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.NoError(t, err)

		confirmed, tickets, err := svc.Confirm(context.Background(), transaction.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, confirmed.Status)
		require.Len(t, tickets, 3)
		for _, ticket := range tickets {
			assert.Equal(t, uint(42), ticket.OwnerID)
			assert.Equal(t, domain.TicketActive, ticket.Status)
			assert.NotEmpty(t, ticket.Code)
		}

		owned, err := svc.GetUserTickets(context.Background(), 42)
		require.NoError(t, err)
		assert.Len(t, owned, 3)
	})

	t.Run("confirm requires the event organizer", func(t *testing.T) {
		svc, _, transaction := setup(t)
		_, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.NoError(t, err)

		_, _, err = svc.Confirm(context.Background(), transaction.ID, 999)
		require.ErrorIs(t, err, ErrNotEventOrganizer)
	})

	t.Run("confirm without a proof is an invalid transition", func(t *testing.T) {
		svc, _, transaction := setup(t)

		_, _, err := svc.Confirm(context.Background(), transaction.ID, 3)
		require.ErrorIs(t, err, ErrInvalidTransactionState)
	})

	t.Run("reject compensates the reservation", func(t *testing.T) {
		svc, fix, transaction := setup(t)
		_, err := svc.UploadProof(context.Background(), transaction.ID, 42, []byte("receipt"))
		require.NoError(t, err)

		rejected, err := svc.Reject(context.Background(), transaction.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRejected, rejected.Status)
		assert.Equal(t, 0, fix.event.TicketTypes[0].Sold, "seats restored")
	})

	t.Run("reject straight from pending payment is refused", func(t *testing.T) {
		svc, _, transaction := setup(t)

		_, err := svc.Reject(context.Background(), transaction.ID, 3)
		require.ErrorIs(t, err, ErrInvalidTransactionState)
	})
}

func TestTransactionServiceCancel(t *testing.T) {
	fix := newCheckoutFixture()
	svc := newCheckoutService(fix, &fakePointsRepo{})
	transaction, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  42,
		EventID: 7,
		Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), transaction.ID, 43)
	require.ErrorIs(t, err, ErrNotTransactionUser)

	cancelled, err := svc.Cancel(context.Background(), transaction.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, fix.event.TicketTypes[0].Sold)

	// Terminal states stay terminal.
	_, err = svc.Cancel(context.Background(), transaction.ID, 42)
	require.ErrorIs(t, err, ErrInvalidTransactionState)
}

func TestTransactionServiceSweepExpired(t *testing.T) {
	fix := newCheckoutFixture()
	svc := newCheckoutService(fix, &fakePointsRepo{})

	overdue, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  42,
		EventID: 7,
		Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	fresh, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  43,
		EventID: 7,
		Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	fix.mu.Lock()
	fix.transactions[overdue.ID].PaymentDeadline = time.Now().Add(-time.Minute)
	fix.mu.Unlock()

	swept, err := svc.SweepExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	expired, err := svc.GetTransaction(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, expired.Status)

	untouched, err := svc.GetTransaction(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, untouched.Status)

	// Only the expired reservation was released.
	assert.Equal(t, 1, fix.event.TicketTypes[0].Sold)
}

func TestTransactionServiceCompensationRetries(t *testing.T) {
	setup := func(t *testing.T, scripted []error) (*TransactionService, *checkoutFixture, domain.Transaction) {
		t.Helper()
		fix := newCheckoutFixture()
		svc := newCheckoutService(fix, &fakePointsRepo{})
		transaction, err := svc.Checkout(context.Background(), CheckoutRequest{
			UserID:  42,
			EventID: 7,
			Items:   []CheckoutItem{{TicketTypeID: 1, Quantity: 1}},
		})
		require.NoError(t, err)
		fix.markFailedErrs = scripted
		return svc, fix, transaction
	}

	t.Run("transient failures are retried", func(t *testing.T) {
		transient := fmt.Errorf("connection reset")
		svc, fix, transaction := setup(t, []error{transient, transient})

		cancelled, err := svc.Cancel(context.Background(), transaction.ID, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Equal(t, 0, fix.event.TicketTypes[0].Sold)
	})

	t.Run("gives up after exhausting attempts", func(t *testing.T) {
		transient := fmt.Errorf("connection reset")
		svc, fix, transaction := setup(t, []error{transient, transient, transient})

		_, err := svc.Cancel(context.Background(), transaction.ID, 42)
		require.Error(t, err)

		// The row is untouched and can be swept later.
		current, findErr := svc.GetTransaction(context.Background(), transaction.ID)
		require.NoError(t, findErr)
		assert.Equal(t, domain.StatusPendingPayment, current.Status)
		assert.Equal(t, 1, fix.event.TicketTypes[0].Sold)
	})
}
