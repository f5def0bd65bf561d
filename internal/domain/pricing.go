package domain

import "errors"

// ErrInvalidAmount rejects negative monetary input. Amounts are whole
// IDR; there are no fractional units to validate.
var ErrInvalidAmount = errors.New("invalid amount")

// Subtotal sums unitPrice x quantity over the given line items.
func Subtotal(items []TransactionItem) (int64, error) {
	var subtotal int64
	for _, item := range items {
		if item.UnitPrice < 0 || item.Quantity < 0 {
			return 0, ErrInvalidAmount
		}
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	return subtotal, nil
}

// FinalTotal computes the payable amount after points and voucher
// discounts. The result is clamped at zero: combined discounts can wipe
// out the subtotal but never produce a negative payable, and any excess
// is simply not collectable.
func FinalTotal(subtotal, points, voucherDiscount int64) (int64, error) {
	if subtotal < 0 || points < 0 || voucherDiscount < 0 {
		return 0, ErrInvalidAmount
	}

	total := subtotal - points - voucherDiscount
	if total < 0 {
		total = 0
	}

	return total, nil
}
