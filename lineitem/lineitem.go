// Package lineitem defines billable items and the tax-rate rule that
// discounts impose on them.
package lineitem

import (
	"fmt"
	"math"
	"slices"

	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/errs"
)

// Item is one billable line. UnitPrice is in minor currency units.
type Item struct {
	Description string              `json:"description"`
	UnitPrice   float64             `json:"unit_price"`
	Quantity    float64             `json:"quantity" validate:"gte=0"`
	TaxRate     float64             `json:"tax_rate" validate:"gte=0,lte=1"`
	Discounts   []discount.Discount `json:"discounts,omitempty" validate:"dive"`
}

// Gross returns UnitPrice × Quantity.
func (i Item) Gross() float64 { return i.UnitPrice * i.Quantity }

// Net returns the line total after the item's own discounts, applied in order.
func (i Item) Net() float64 { return discount.ApplyAll(i.Gross(), i.Discounts) }

// Validate checks the item at mutation time.
func (i Item) Validate() error {
	if math.IsNaN(i.UnitPrice) || math.IsInf(i.UnitPrice, 0) {
		return fmt.Errorf("%w: unit price must be finite", errs.ErrInvalidInput)
	}
	if i.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", errs.ErrInvalidInput)
	}
	if i.TaxRate < 0 || i.TaxRate > 1 {
		return fmt.Errorf("%w: tax rate %v outside [0,1]", errs.ErrInvalidInput, i.TaxRate)
	}
	return discount.ValidateAll(i.Discounts)
}

// Rates returns the distinct nonzero tax rates of items in ascending order.
func Rates(items []Item) []float64 {
	var rates []float64
	for _, it := range items {
		if it.TaxRate != 0 && !slices.Contains(rates, it.TaxRate) {
			rates = append(rates, it.TaxRate)
		}
	}
	slices.Sort(rates)
	return rates
}

// HasDiscounts reports whether any item or the document carries a discount.
func HasDiscounts(items []Item, docDiscounts []discount.Discount) bool {
	if len(docDiscounts) > 0 {
		return true
	}
	for _, it := range items {
		if len(it.Discounts) > 0 {
			return true
		}
	}
	return false
}

// CheckTaxRates rejects two or more distinct nonzero tax rates when any
// discount is present. Zero-rated items are exempt.
func CheckTaxRates(items []Item, docDiscounts []discount.Discount) error {
	if !HasDiscounts(items, docDiscounts) {
		return nil
	}
	if rates := Rates(items); len(rates) > 1 {
		return fmt.Errorf("%w: found rates %v", errs.ErrMixedTaxRates, rates)
	}
	return nil
}

// Clone deep-copies items.
func Clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		it.Discounts = discount.Clone(it.Discounts)
		out[i] = it
	}
	return out
}

// Invert returns the credit-note form of items: unit prices change sign and
// item discounts are inverted.
func Invert(items []Item) []Item {
	out := Clone(items)
	for i := range out {
		out[i].UnitPrice = -out[i].UnitPrice
		out[i].Discounts = discount.Invert(out[i].Discounts)
	}
	return out
}
