package domain

import "time"

// PointsGrant is one loyalty-point accrual. The usable balance of a user
// is always derived from unconsumed, unexpired grants; it is never stored
// as a scalar, so a reservation can be reversed grant by grant.
type PointsGrant struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ExpiresAt   time.Time `json:"expires_at"`
	Consumed    bool      `json:"consumed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g PointsGrant) Usable(now time.Time) bool {
	return !g.Consumed && g.ExpiresAt.After(now)
}

// PointsRedemption records how much of one grant a transaction consumed.
// Releasing a transaction walks its redemptions and puts the amounts back.
type PointsRedemption struct {
	ID            uint      `json:"id"`
	TransactionID uint      `json:"transaction_id"`
	GrantID       uint      `json:"grant_id"`
	Amount        int64     `json:"amount"`
	Released      bool      `json:"released"`
	CreatedAt     time.Time `json:"created_at"`
}
