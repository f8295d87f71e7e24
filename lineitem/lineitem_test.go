package lineitem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/lineitem"
)

func TestNetFoldsItemDiscounts(t *testing.T) {
	it := lineitem.Item{
		UnitPrice: 1000,
		Quantity:  1,
		Discounts: []discount.Discount{discount.Fixed(100, ""), discount.Percentage(0.18, "")},
	}
	assert.Equal(t, 1000.0, it.Gross())
	assert.Equal(t, 738.0, it.Net())
}

func TestRates(t *testing.T) {
	items := []lineitem.Item{{TaxRate: 0.21}, {TaxRate: 0}, {TaxRate: 0.09}, {TaxRate: 0.21}}
	assert.Equal(t, []float64{0.09, 0.21}, lineitem.Rates(items))
}

func TestCheckTaxRates(t *testing.T) {
	mixed := []lineitem.Item{{TaxRate: 0.21}, {TaxRate: 0.09}}
	assert.NoError(t, lineitem.CheckTaxRates(mixed, nil))
	assert.ErrorIs(t, lineitem.CheckTaxRates(mixed, []discount.Discount{discount.Fixed(1, "")}), errs.ErrMixedTaxRates)

	withItemDiscount := []lineitem.Item{
		{TaxRate: 0.21, Discounts: []discount.Discount{discount.Percentage(0.1, "")}},
		{TaxRate: 0.09},
	}
	assert.ErrorIs(t, lineitem.CheckTaxRates(withItemDiscount, nil), errs.ErrMixedTaxRates)

	exempt := []lineitem.Item{{TaxRate: 0.21}, {TaxRate: 0}}
	assert.NoError(t, lineitem.CheckTaxRates(exempt, []discount.Discount{discount.Fixed(1, "")}))
}

func TestInvert(t *testing.T) {
	items := []lineitem.Item{{
		UnitPrice: 500,
		Quantity:  2,
		Discounts: []discount.Discount{discount.Fixed(50, ""), discount.Percentage(0.1, "")},
	}}
	inv := lineitem.Invert(items)

	assert.Equal(t, -500.0, inv[0].UnitPrice)
	assert.Equal(t, -50.0, inv[0].Discounts[0].Value)
	assert.Equal(t, 0.1, inv[0].Discounts[1].Value)
	assert.Equal(t, 500.0, items[0].UnitPrice, "source untouched")
	assert.Equal(t, 50.0, items[0].Discounts[0].Value, "source untouched")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, lineitem.Item{UnitPrice: 1, Quantity: 1, TaxRate: 0.2}.Validate())
	assert.ErrorIs(t, lineitem.Item{Quantity: -1}.Validate(), errs.ErrInvalidInput)
	assert.ErrorIs(t, lineitem.Item{TaxRate: 2}.Validate(), errs.ErrInvalidInput)
}
