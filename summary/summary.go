// Package summary turns items and document discounts into the ordered
// breakdown rendered on documents.
//
// Arithmetic is plain float64 with no intermediate rounding. Item discounts
// are folded into item nets, document discounts are applied in insertion
// order against the running subtotal, and tax is computed on the
// post-discount amount. Changing that order changes golden outputs.
package summary

import (
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/lineitem"
)

// LineType names a breakdown line.
type LineType string

const (
	LineSubtotal          LineType = "subtotal"
	LineDiscount          LineType = "discount"
	LineSubtotalDiscounts LineType = "subtotal/discounts"
	LineVAT               LineType = "vat"
	LineTotal             LineType = "total"
	LinePaid              LineType = "paid"
)

// Line is one entry of a breakdown. Rate is set on vat lines and Discount on
// discount lines, whose Value is the discount value as entered.
type Line struct {
	Type     LineType           `json:"type"`
	Value    float64            `json:"value"`
	Rate     float64            `json:"rate,omitempty"`
	Discount *discount.Discount `json:"discount,omitempty"`
}

type options struct {
	paid    float64
	hasPaid bool
}

// Option customizes Compute.
type Option func(*options)

// WithPaid appends a paid line carrying the amount collected so far.
func WithPaid(amount float64) Option {
	return func(o *options) {
		o.paid = amount
		o.hasPaid = true
	}
}

// Compute returns the breakdown of items and document discounts.
func Compute(items []lineitem.Item, discounts []discount.Discount, opts ...Option) []Line {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	subtotal := 0.0
	for _, it := range items {
		subtotal += it.Net()
	}

	taxed := len(lineitem.Rates(items)) > 0

	if !discount.Any(discounts) && !taxed {
		return o.withPaid([]Line{{Type: LineTotal, Value: subtotal}})
	}

	lines := []Line{{Type: LineSubtotal, Value: subtotal}}
	post := subtotal

	if discount.Any(discounts) {
		for _, d := range discounts {
			n := d.Normalize()
			lines = append(lines, Line{Type: LineDiscount, Value: n.Value, Discount: &n})
		}
		post = discount.ApplyAll(subtotal, discounts)
		lines = append(lines, Line{Type: LineSubtotalDiscounts, Value: subtotal - post})
		if taxed {
			lines = append(lines, Line{Type: LineSubtotal, Value: post})
		}
	}

	vat := 0.0
	for _, l := range vatLines(items, discounts, post) {
		lines = append(lines, l)
		vat += l.Value
	}

	lines = append(lines, Line{Type: LineTotal, Value: post + vat})
	return o.withPaid(lines)
}

func (o options) withPaid(lines []Line) []Line {
	if o.hasPaid {
		lines = append(lines, Line{Type: LinePaid, Value: o.paid})
	}
	return lines
}

// vatLines returns one vat line per nonzero rate, ascending. With document
// discounts only one nonzero rate can exist and it applies to the whole
// post-discount subtotal, zero-rated items included.
func vatLines(items []lineitem.Item, discounts []discount.Discount, post float64) []Line {
	rates := lineitem.Rates(items)
	if len(rates) == 0 {
		return nil
	}

	if discount.Any(discounts) {
		return []Line{{Type: LineVAT, Rate: rates[0], Value: rates[0] * post}}
	}

	out := make([]Line, 0, len(rates))
	for _, r := range rates {
		base := 0.0
		for _, it := range items {
			if it.TaxRate == r {
				base += it.Net()
			}
		}
		out = append(out, Line{Type: LineVAT, Rate: r, Value: r * base})
	}
	return out
}

// Total returns the value of the total line, or 0 when lines has none.
func Total(lines []Line) float64 {
	for _, l := range lines {
		if l.Type == LineTotal {
			return l.Value
		}
	}
	return 0
}

// TotalOf is shorthand for Total(Compute(items, discounts)).
func TotalOf(items []lineitem.Item, discounts []discount.Discount) float64 {
	return Total(Compute(items, discounts))
}

// Find returns the first line of type t.
func Find(lines []Line, t LineType) (Line, bool) {
	for _, l := range lines {
		if l.Type == t {
			return l, true
		}
	}
	return Line{}, false
}
