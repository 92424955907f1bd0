package pricing

import (
	"fmt"

	pkgerrors "github.com/opremico/opremico-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// taxRate is the VAT rate applied to every order.
var taxRate = decimal.NewFromFloat(0.22)

var oneHundred = decimal.NewFromInt(100)

// LineInput is one candidate line item prior to recalculation.
type LineInput struct {
	SKU             string
	Name            string
	Unit            string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// LineResult carries the derived amounts for one accepted line.
type LineResult struct {
	LineInput
	UnitPriceCents int64
	LineTotalCents int64
}

// Totals is the result of recalculating an order. All amounts are cents.
type Totals struct {
	Lines         []LineResult
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

// Recalculate derives order totals from candidate line items and a shipping
// amount. Rounding is half-up to 2 decimals at every step, in a fixed order:
// each line total first, then the subtotal, then tax, then the grand total.
// Repeating the computation over identical input always yields identical
// cents; the caller can rely on total == subtotal + tax + shipping exactly.
func Recalculate(items []LineInput, shipping decimal.Decimal) (*Totals, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if shipping.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping must not be negative")
	}

	lines := make([]LineResult, 0, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if err := validateLine(i, item); err != nil {
			return nil, err
		}

		lineBase := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lineDiscount := lineBase.Mul(item.DiscountPercent).Div(oneHundred)
		if lineDiscount.GreaterThan(lineBase) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item %d: discount exceeds line value", i+1))
		}
		lineTotal := round2(lineBase.Sub(lineDiscount))

		lines = append(lines, LineResult{
			LineInput:      item,
			UnitPriceCents: toCents(round2(item.UnitPrice)),
			LineTotalCents: toCents(lineTotal),
		})
		subtotal = subtotal.Add(lineTotal)
	}

	subtotal = round2(subtotal)
	tax := round2(subtotal.Mul(taxRate))
	shippingRounded := round2(shipping)
	total := round2(subtotal.Add(tax).Add(shippingRounded))

	return &Totals{
		Lines:         lines,
		SubtotalCents: toCents(subtotal),
		TaxCents:      toCents(tax),
		ShippingCents: toCents(shippingRounded),
		TotalCents:    toCents(total),
	}, nil
}

// FromCents converts a stored cent amount back to a decimal value.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(oneHundred)
}

func validateLine(index int, item LineInput) error {
	position := index + 1
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("item %d: quantity must be at least 1", position))
	}
	if item.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("item %d: unit price must not be negative", position))
	}
	if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(oneHundred) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("item %d: discount must be between 0 and 100", position))
	}
	return nil
}

// round2 rounds half-up to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func toCents(d decimal.Decimal) int64 {
	return d.Mul(oneHundred).IntPart()
}
