// Package pricing turns a cart and a rate configuration into an itemized
// billing breakdown. All functions are pure; callers re-invoke them on
// every view and once more, authoritatively, at payment confirmation using
// the rate snapshot frozen at confirm time.
package pricing

import (
	"github.com/shopspring/decimal"

	"foodcourt-system/internal/models"
)

// ComputeTotals derives the full billing breakdown. The surcharge rate
// applies only when paying through the online gateway. The grand total is
// deliberately not clamped at zero: a discount larger than the bill
// produces a negative total, which the restaurant settles in cash.
func ComputeTotals(lines []models.LineItem, rates models.RateConfig, method models.PaymentMethod) models.Totals {
	subtotal := Subtotal(lines)

	sub := decimal.NewFromFloat(subtotal)
	hundred := decimal.NewFromInt(100)

	delivery := sub.Mul(decimal.NewFromFloat(rates.DeliveryRatePercent)).Div(hundred).Round(2)
	tax := sub.Mul(decimal.NewFromFloat(rates.TaxRatePercent)).Div(hundred).Round(2)

	surcharge := decimal.Zero
	if method == models.PaymentOnlineGateway {
		surcharge = sub.Mul(decimal.NewFromFloat(rates.SurchargeRatePercent)).Div(hundred).Round(2)
	}

	discount := decimal.NewFromFloat(rates.DiscountAbsolute).Round(2)
	grand := sub.Add(delivery).Add(tax).Add(surcharge).Sub(discount)

	return models.Totals{
		Subtotal:       subtotal,
		DeliveryCharge: delivery.InexactFloat64(),
		TaxAmount:      tax.InexactFloat64(),
		Surcharge:      surcharge.InexactFloat64(),
		Discount:       discount.InexactFloat64(),
		GrandTotal:     grand.InexactFloat64(),
	}
}

// Subtotal sums unit price times quantity over the given lines, rounded
// to two decimal places.
func Subtotal(lines []models.LineItem) float64 {
	sum := decimal.Zero
	for _, li := range lines {
		sum = sum.Add(decimal.NewFromFloat(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}
