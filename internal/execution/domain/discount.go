package domain

import (
	"math"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
)

// DiscountKind selects how the operator-entered discount value is read.
type DiscountKind string

const (
	// DiscountAmount interprets the value as cents off the gross total.
	DiscountAmount DiscountKind = "amount"
	// DiscountPercentage interprets the value as a percentage of the total.
	DiscountPercentage DiscountKind = "percentage"
)

// ParseDiscountKind validates a raw discount kind string.
func ParseDiscountKind(raw string) (DiscountKind, error) {
	switch DiscountKind(raw) {
	case DiscountAmount, DiscountPercentage:
		return DiscountKind(raw), nil
	default:
		return "", apperr.Validation("unknown discount kind: " + raw)
	}
}

// AppliedDiscount computes the discount in cents actually applied at
// finalization. Whatever the operator enters, the result is clamped to
// [0, totalCents]: negative inputs apply nothing, a percentage over 100 or
// an amount over the total applies exactly the total. The gross total itself
// is never modified; the discounted total is derived on read.
func AppliedDiscount(totalCents int64, kind DiscountKind, value float64) int64 {
	var raw float64
	switch kind {
	case DiscountPercentage:
		raw = float64(totalCents) * value / 100
	default:
		raw = value
	}

	applied := int64(math.Round(raw))
	if applied < 0 {
		return 0
	}
	if applied > totalCents {
		return totalCents
	}
	return applied
}
