// Package discount defines item- and document-level discounts and the order
// in which they reduce a running amount.
package discount

import (
	"fmt"
	"math"

	"github.com/xraph/invoicer/errs"
)

// Type selects how a discount reduces an amount.
type Type string

const (
	// TypeFixed subtracts Value × Quantity.
	TypeFixed Type = "fixed"
	// TypePercentage subtracts Value × running amount. Value is a fraction in [0,1].
	TypePercentage Type = "percentage"
)

// QuantityType records whether a fixed discount's quantity was given by the caller.
type QuantityType string

const (
	QuantityImplicit QuantityType = "implicit"
	QuantityExplicit QuantityType = "explicit"
)

// Discount reduces an item's line total or a document subtotal.
type Discount struct {
	Type         Type         `json:"type" validate:"required,oneof=fixed percentage"`
	Value        float64      `json:"value"`
	Reason       string       `json:"reason,omitempty"`
	Quantity     float64      `json:"quantity,omitempty" validate:"gte=0"`
	QuantityType QuantityType `json:"quantity_type,omitempty" validate:"omitempty,oneof=implicit explicit"`
}

// Fixed returns a fixed discount with an implicit quantity of one.
func Fixed(value float64, reason string) Discount {
	return Discount{Type: TypeFixed, Value: value, Reason: reason, Quantity: 1, QuantityType: QuantityImplicit}
}

// FixedQuantity returns a fixed discount applied quantity times.
func FixedQuantity(value, quantity float64, reason string) Discount {
	return Discount{Type: TypeFixed, Value: value, Reason: reason, Quantity: quantity, QuantityType: QuantityExplicit}
}

// Percentage returns a percentage discount. value is a fraction, 0.1 for 10%.
func Percentage(value float64, reason string) Discount {
	return Discount{Type: TypePercentage, Value: value, Reason: reason}
}

// Normalize fills the implicit quantity of fixed discounts.
func (d Discount) Normalize() Discount {
	if d.Type != TypeFixed {
		return d
	}
	if d.QuantityType == "" {
		if d.Quantity == 0 {
			d.Quantity = 1
			d.QuantityType = QuantityImplicit
		} else {
			d.QuantityType = QuantityExplicit
		}
	}
	return d
}

// Reduction returns how much d removes from running.
func (d Discount) Reduction(running float64) float64 {
	switch d.Type {
	case TypeFixed:
		n := d.Normalize()
		return n.Value * n.Quantity
	case TypePercentage:
		return d.Value * running
	}
	return 0
}

// ApplyAll reduces amount by each discount in order. Percentages compound.
func ApplyAll(amount float64, discounts []Discount) float64 {
	running := amount
	for _, d := range discounts {
		running -= d.Reduction(running)
	}
	return running
}

// Inverted returns the credit-note form of d. Fixed values change sign;
// percentage values do not because the base they apply to is already negative.
func (d Discount) Inverted() Discount {
	if d.Type == TypeFixed {
		d.Value = -d.Value
	}
	return d
}

// Validate checks d outside of struct validation, at mutation time.
func (d Discount) Validate() error {
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return fmt.Errorf("%w: value must be finite", errs.ErrInvalidDiscount)
	}
	switch d.Type {
	case TypeFixed:
		if d.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", errs.ErrInvalidDiscount)
		}
	case TypePercentage:
		if d.Value < 0 || d.Value > 1 {
			return fmt.Errorf("%w: percentage %v outside [0,1]", errs.ErrInvalidDiscount, d.Value)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", errs.ErrInvalidDiscount, d.Type)
	}
	return nil
}

// ValidateAll validates every discount in ds.
func ValidateAll(ds []Discount) error {
	for i, d := range ds {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("discount %d: %w", i, err)
		}
	}
	return nil
}

// Clone copies ds.
func Clone(ds []Discount) []Discount {
	if ds == nil {
		return nil
	}
	out := make([]Discount, len(ds))
	copy(out, ds)
	return out
}

// Invert returns the inverted form of every discount in ds.
func Invert(ds []Discount) []Discount {
	if ds == nil {
		return nil
	}
	out := make([]Discount, len(ds))
	for i, d := range ds {
		out[i] = d.Inverted()
	}
	return out
}

// Any reports whether ds is non-empty.
func Any(ds []Discount) bool { return len(ds) > 0 }
