// Package pricing implements the sale-price rule:
// cost price times a global markup, minus an optional percent discount.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMarkup is used when the configured markup is missing or unusable.
var DefaultMarkup = decimal.RequireFromString("1.30")

var hundred = decimal.NewFromInt(100)

// NormalizeMarkup replaces a non-positive markup with the default.
func NormalizeMarkup(markup decimal.Decimal) decimal.Decimal {
	if !markup.IsPositive() {
		return DefaultMarkup
	}
	return markup
}

// ParseMarkup parses a markup string, falling back to the default on
// anything unparseable or non-positive.
func ParseMarkup(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return DefaultMarkup
	}
	return NormalizeMarkup(d)
}

// ClampDiscount clamps a discount percent into [0, 100]. A discount above
// 100 would produce a negative price, so it floors the price at zero instead.
func ClampDiscount(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// BasePrice is cost times markup, rounded half-up to whole currency units.
// This is also the "was" price shown next to a discounted price.
func BasePrice(cost, markup decimal.Decimal) decimal.Decimal {
	return cost.Mul(NormalizeMarkup(markup)).Round(0)
}

// SalePrice computes the final sale price. Rounding is half-up to whole
// currency units; the shop does not deal in cents.
func SalePrice(cost, markup decimal.Decimal, discountPercent int) decimal.Decimal {
	base := cost.Mul(NormalizeMarkup(markup))
	d := ClampDiscount(discountPercent)
	if d > 0 {
		base = base.Mul(decimal.NewFromInt(int64(100 - d))).Div(hundred)
	}
	return base.Round(0)
}
