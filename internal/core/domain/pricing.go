package domain

import "github.com/shopspring/decimal"

// Pricing policy. Both values are flat placeholders: shipping does not depend
// on weight or destination and tax does not depend on jurisdiction.
var (
	FlatShippingFee = decimal.RequireFromString("5.00")
	TaxRate         = decimal.RequireFromString("0.08")
)

const currencyPlaces = 2

// Totals is the price breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Taxes    decimal.Decimal
	Total    decimal.Decimal
}

// PriceItems computes the breakdown from snapshotted line items. An order
// whose items are all free pays no shipping. The total is rounded once from
// the unrounded components; the components are rounded for display only.
func PriceItems(items []LineItem) Totals {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(li.LineTotal())
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = FlatShippingFee
	}
	taxes := subtotal.Mul(TaxRate)

	return Totals{
		Subtotal: subtotal.Round(currencyPlaces),
		Shipping: shipping.Round(currencyPlaces),
		Taxes:    taxes.Round(currencyPlaces),
		Total:    subtotal.Add(shipping).Add(taxes).Round(currencyPlaces),
	}
}
