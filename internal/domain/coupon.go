package domain

import (
	"math"
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type CouponScope string

const (
	ScopeSystem    CouponScope = "system"
	ScopeOrganizer CouponScope = "organizer"
	ScopeEvent     CouponScope = "event"
)

type Coupon struct {
	ID            uint         `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue int64        `json:"discount_value"`
	Scope         CouponScope  `json:"scope"`
	OrganizerID   *uint        `json:"organizer_id,omitempty"`
	EventID       *uint        `json:"event_id,omitempty"`
	MinPurchase   int64        `json:"min_purchase"`
	MaxUses       int          `json:"max_uses"`
	CurrentUses   int          `json:"current_uses"`
	ValidFrom     time.Time    `json:"valid_from"`
	ValidUntil    time.Time    `json:"valid_until"`
	IsActive      bool         `json:"is_active"`
	OwnerUserID   *uint        `json:"owner_user_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NormalizeCouponCode trims surrounding whitespace and upper-cases a
// user-supplied code so lookups are exact-match.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount resolves the coupon into an absolute IDR amount against the
// given subtotal. A fixed discount never exceeds the subtotal.
func (c Coupon) Discount(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountPercentage:
		return int64(math.Round(float64(subtotal) * float64(c.DiscountValue) / 100))
	case DiscountFixed:
		if c.DiscountValue > subtotal {
			return subtotal
		}
		return c.DiscountValue
	}

	return 0
}
