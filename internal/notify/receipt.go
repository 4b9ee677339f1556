// Package notify renders customer-facing order summaries and delivers
// them over the configured channels. Delivery is best-effort; the archived
// order is authoritative regardless of what happens here.
package notify

import (
	"fmt"
	"strings"

	"foodcourt-system/internal/models"
)

const receiptHeader = "Dhaliwals Food Court"

// RenderReceipt produces the printable receipt for an order. It is
// derived from the order record alone, so the same record always yields
// the same bytes.
func RenderReceipt(order *models.Order) []byte {
	var b strings.Builder

	line := strings.Repeat("=", 40)
	fmt.Fprintf(&b, "%s\n%s\n%s\n", line, receiptHeader, line)
	fmt.Fprintf(&b, "Order ID: %s\n", order.OrderID)
	fmt.Fprintf(&b, "Date:     %s\n", order.CreatedAt.Format("02-01-2006 15:04"))
	fmt.Fprintf(&b, "Customer: %s\n", order.Customer.Name)
	fmt.Fprintf(&b, "Phone:    %s\n", order.Customer.Phone)
	if order.Customer.Address != "" {
		fmt.Fprintf(&b, "Address:  %s\n", order.Customer.Address)
	}
	fmt.Fprintf(&b, "Type:     %s\n", order.FulfillmentType)
	if order.PickupTime != "" {
		fmt.Fprintf(&b, "Pickup:   %s\n", order.PickupTime)
	}
	fmt.Fprintf(&b, "%s\n", line)

	for _, li := range order.LineItems {
		fmt.Fprintf(&b, "%dx %s (%s) @ %.2f = %.2f\n",
			li.Quantity, li.ItemName, li.Size, li.UnitPrice, li.LineTotal())
	}

	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "Subtotal:        %10.2f\n", order.Totals.Subtotal)
	if order.Totals.DeliveryCharge != 0 {
		fmt.Fprintf(&b, "Delivery charge: %10.2f\n", order.Totals.DeliveryCharge)
	}
	fmt.Fprintf(&b, "Tax:             %10.2f\n", order.Totals.TaxAmount)
	if order.Totals.Surcharge != 0 {
		fmt.Fprintf(&b, "Surcharge:       %10.2f\n", order.Totals.Surcharge)
	}
	if order.Totals.Discount != 0 {
		fmt.Fprintf(&b, "Discount:        %10.2f\n", order.Totals.Discount)
	}
	fmt.Fprintf(&b, "Grand total:     %10.2f\n", order.Totals.GrandTotal)
	fmt.Fprintf(&b, "Paid via:        %s\n", order.PaymentMethod)
	fmt.Fprintf(&b, "%s\n", line)

	return []byte(b.String())
}

// RenderSummaryText produces the short itemized summary used on the
// messaging channel.
func RenderSummaryText(order *models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order %s confirmed (%s)\n", order.OrderID, order.CreatedAt.Format("02-01-2006 15:04"))
	for _, li := range order.LineItems {
		fmt.Fprintf(&b, "- %dx %s (%s): %.2f\n", li.Quantity, li.ItemName, li.Size, li.LineTotal())
	}
	fmt.Fprintf(&b, "Subtotal: %.2f | Charges: %.2f | Grand total: %.2f",
		order.Totals.Subtotal,
		order.Totals.DeliveryCharge+order.Totals.TaxAmount+order.Totals.Surcharge-order.Totals.Discount,
		order.Totals.GrandTotal)

	return b.String()
}
