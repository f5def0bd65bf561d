package dao

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Printf("skipping dao tests, docker unavailable: %v", err)
		os.Exit(0)
	}
	if err = pool.Client.Ping(); err != nil {
		log.Printf("skipping dao tests, docker unavailable: %v", err)
		os.Exit(0)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=tiketku",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=tiketku_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("postgres://tiketku:secret@%v/tiketku_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Ping(); err != nil {
			return err
		}

		testDB = db
		return nil
	}); err != nil {
		log.Fatalf("could not connect to postgres: %v", err)
	}

	if err = InitTables(testDB); err != nil {
		log.Fatalf("could not migrate tables: %v", err)
	}

	code := m.Run()

	if err = pool.Purge(resource); err != nil {
		log.Printf("could not purge postgres container: %v", err)
	}

	os.Exit(code)
}

var userSeq atomic.Uint64

// nextUserID hands each test its own user so tests sharing the database
// never see each other's grants or transactions.
func nextUserID() uint {
	return uint(1000 + userSeq.Add(1))
}

func seedEvent(t *testing.T, regular, vip int) Event {
	t.Helper()

	event := Event{
		OrganizerID:    1,
		Title:          "Java Jazz Festival",
		Location:       "Jakarta",
		StartsAt:       time.Now().Add(30 * 24 * time.Hour),
		TotalCapacity:  regular + vip,
		AvailableSeats: regular + vip,
		TicketTypes: []TicketType{
			{Name: "Regular", Price: 150000, MaxQuantity: regular},
			{Name: "VIP", Price: 500000, MaxQuantity: vip},
		},
	}
	require.NoError(t, testDB.Create(&event).Error)
	return event
}

func seedCoupon(t *testing.T, code string, maxUses int) Coupon {
	t.Helper()

	coupon := Coupon{
		Code:          code,
		DiscountType:  "fixed",
		DiscountValue: 50000,
		Scope:         "system",
		MaxUses:       maxUses,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
	require.NoError(t, testDB.Create(&coupon).Error)
	return coupon
}

func seedGrant(t *testing.T, userID uint, amount int64, expiresAt time.Time) PointsGrant {
	t.Helper()

	grant := PointsGrant{
		UserID:      userID,
		Amount:      amount,
		Description: "test grant",
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, testDB.Create(&grant).Error)
	return grant
}

func checkoutTransaction(userID uint, event Event, couponID *uint, points int64) Transaction {
	return Transaction{
		UserID:  userID,
		EventID: event.ID,
		Items: []TransactionItem{
			{TicketTypeID: event.TicketTypes[0].ID, Quantity: 2, UnitPrice: 150000},
		},
		OriginalAmount:  300000,
		PointsUsed:      points,
		TotalAmount:     300000 - points,
		CouponID:        couponID,
		Status:          StatusPendingPayment,
		PaymentDeadline: time.Now().Add(2 * time.Hour),
	}
}

func TestInsertCheckoutReservesSeatsCouponAndPoints(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)
	pointsDAO := NewPointsDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 100, 10)
	coupon := seedCoupon(t, fmt.Sprintf("DAO-%d", userID), 5)
	seedGrant(t, userID, 20000, time.Now().Add(24*time.Hour))

	created, err := d.InsertCheckout(ctx, checkoutTransaction(userID, event, &coupon.ID, 15000), time.Now())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	var tt TicketType
	require.NoError(t, testDB.First(&tt, event.TicketTypes[0].ID).Error)
	assert.Equal(t, 2, tt.Sold)

	var refreshedEvent Event
	require.NoError(t, testDB.First(&refreshedEvent, event.ID).Error)
	assert.Equal(t, 108, refreshedEvent.AvailableSeats)

	var refreshedCoupon Coupon
	require.NoError(t, testDB.First(&refreshedCoupon, coupon.ID).Error)
	assert.Equal(t, 1, refreshedCoupon.CurrentUses)

	balance, err := pointsDAO.UsableBalance(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), balance)
}

func TestInsertCheckoutRollsBackOnInsufficientSeats(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 1, 1)

	transaction := checkoutTransaction(userID, event, nil, 0)
	transaction.Items[0].Quantity = 2

	_, err := d.InsertCheckout(ctx, transaction, time.Now())
	require.ErrorIs(t, err, ErrInsufficientSeats)

	var count int64
	require.NoError(t, testDB.Model(&Transaction{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Zero(t, count, "transaction row rolled back")

	var tt TicketType
	require.NoError(t, testDB.First(&tt, event.TicketTypes[0].ID).Error)
	assert.Zero(t, tt.Sold)
}

func TestInsertCheckoutRollsBackOnInsufficientPoints(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 10, 1)
	seedGrant(t, userID, 1000, time.Now().Add(24*time.Hour))

	_, err := d.InsertCheckout(ctx, checkoutTransaction(userID, event, nil, 5000), time.Now())
	require.ErrorIs(t, err, ErrInsufficientPoints)

	var tt TicketType
	require.NoError(t, testDB.First(&tt, event.TicketTypes[0].ID).Error)
	assert.Zero(t, tt.Sold, "seat reservation rolled back with the points failure")
}

func TestAttachProofGuards(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 10, 1)

	created, err := d.InsertCheckout(ctx, checkoutTransaction(userID, event, nil, 0), time.Now())
	require.NoError(t, err)

	t.Run("past the deadline", func(t *testing.T) {
		_, err := d.AttachProof(ctx, created.ID, "ref-1", created.PaymentDeadline.Add(time.Second))
		require.ErrorIs(t, err, ErrPaymentWindowExpired)
	})

	t.Run("within the window", func(t *testing.T) {
		updated, err := d.AttachProof(ctx, created.ID, "ref-1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, StatusPendingConfirmation, updated.Status)
		assert.Equal(t, "ref-1", updated.PaymentProofRef)
	})

	t.Run("second proof refused", func(t *testing.T) {
		_, err := d.AttachProof(ctx, created.ID, "ref-2", time.Now())
		require.ErrorIs(t, err, ErrInvalidTransactionState)
	})
}

func TestMarkConfirmedIssuesTickets(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 10, 1)

	created, err := d.InsertCheckout(ctx, checkoutTransaction(userID, event, nil, 0), time.Now())
	require.NoError(t, err)

	_, _, err = d.MarkConfirmed(ctx, created.ID)
	require.ErrorIs(t, err, ErrInvalidTransactionState, "cannot confirm before a proof arrives")

	_, err = d.AttachProof(ctx, created.ID, "ref-1", time.Now())
	require.NoError(t, err)

	confirmed, tickets, err := d.MarkConfirmed(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.Len(t, tickets, 2)
	assert.NotEqual(t, tickets[0].Code, tickets[1].Code)

	owned, err := d.FindTicketsByOwner(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	attended, err := d.HasConfirmedForEvent(ctx, userID, event.ID)
	require.NoError(t, err)
	assert.True(t, attended)
}

func TestMarkFailedCompensatesEverything(t *testing.T) {
	ctx := context.Background()
	d := NewTransactionDAO(testDB)
	pointsDAO := NewPointsDAO(testDB)

	userID := nextUserID()
	event := seedEvent(t, 100, 10)
	coupon := seedCoupon(t, fmt.Sprintf("DAO-%d", userID), 5)
	seedGrant(t, userID, 20000, time.Now().Add(24*time.Hour))

	created, err := d.InsertCheckout(ctx, checkoutTransaction(userID, event, &coupon.ID, 15000), time.Now())
	require.NoError(t, err)

	failed, err := d.MarkFailed(ctx, created.ID, StatusCancelled, []string{StatusPendingPayment, StatusPendingConfirmation})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, failed.Status)

	var tt TicketType
	require.NoError(t, testDB.First(&tt, event.TicketTypes[0].ID).Error)
	assert.Zero(t, tt.Sold, "seats restored")

	var refreshedEvent Event
	require.NoError(t, testDB.First(&refreshedEvent, event.ID).Error)
	assert.Equal(t, 110, refreshedEvent.AvailableSeats)

	var refreshedCoupon Coupon
	require.NoError(t, testDB.First(&refreshedCoupon, coupon.ID).Error)
	assert.Zero(t, refreshedCoupon.CurrentUses, "voucher use returned")

	balance, err := pointsDAO.UsableBalance(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(20000), balance, "points released")

	_, err = d.MarkFailed(ctx, created.ID, StatusExpired, []string{StatusPendingPayment})
	require.ErrorIs(t, err, ErrInvalidTransactionState, "terminal rows never transition again")
}

func TestReservePointsOldestExpiryFirst(t *testing.T) {
	userID := nextUserID()
	now := time.Now()

	soon := seedGrant(t, userID, 5000, now.Add(24*time.Hour))
	later := seedGrant(t, userID, 10000, now.Add(48*time.Hour))

	const transactionID = 999999

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return reservePoints(tx, userID, transactionID, 8000, now)
	}))

	var refreshedSoon, refreshedLater PointsGrant
	require.NoError(t, testDB.First(&refreshedSoon, soon.ID).Error)
	require.NoError(t, testDB.First(&refreshedLater, later.ID).Error)

	assert.True(t, refreshedSoon.Consumed, "earliest-expiring grant fully drained")
	assert.Zero(t, refreshedSoon.Amount)
	assert.False(t, refreshedLater.Consumed, "later grant only split")
	assert.Equal(t, int64(7000), refreshedLater.Amount)

	var redemptions []PointsRedemption
	require.NoError(t, testDB.Where("transaction_id = ?", transactionID).Find(&redemptions).Error)
	require.Len(t, redemptions, 2)

	// Release puts both portions back and is idempotent.
	for i := 0; i < 2; i++ {
		require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
			return releasePoints(tx, transactionID)
		}))
	}

	require.NoError(t, testDB.First(&refreshedSoon, soon.ID).Error)
	require.NoError(t, testDB.First(&refreshedLater, later.ID).Error)
	assert.Equal(t, int64(5000), refreshedSoon.Amount)
	assert.False(t, refreshedSoon.Consumed)
	assert.Equal(t, int64(10000), refreshedLater.Amount)
}

func TestCouponUseCounterGuards(t *testing.T) {
	userID := nextUserID()
	coupon := seedCoupon(t, fmt.Sprintf("GUARD-%d", userID), 1)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return incrementCouponUses(tx, coupon.ID)
	}))

	err := testDB.Transaction(func(tx *gorm.DB) error {
		return incrementCouponUses(tx, coupon.ID)
	})
	require.ErrorIs(t, err, ErrCouponExhausted)

	require.NoError(t, testDB.Transaction(func(tx *gorm.DB) error {
		return decrementCouponUses(tx, coupon.ID)
	}))

	var refreshed Coupon
	require.NoError(t, testDB.First(&refreshed, coupon.ID).Error)
	assert.Zero(t, refreshed.CurrentUses)
}
