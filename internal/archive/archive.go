// Package archive persists finalized orders to the append-only ledger.
// Appends are atomic per record; writers never rewrite history.
package archive

import (
	"context"

	"foodcourt-system/internal/models"
)

// Header is the fixed column header written exactly once, on first write
var Header = []string{
	"OrderID", "Date", "Customer", "Phone", "Email", "Address",
	"Items", "OrderType", "PickupTime", "Payment",
	"Subtotal", "DeliveryCharge", "Tax", "Surcharge", "Discount", "Total",
}

// Archive is the append-only order ledger. Implementations must serialize
// appends so concurrent sessions cannot interleave-corrupt each other.
type Archive interface {
	// Append writes one order record, all-or-nothing.
	Append(ctx context.Context, order *models.Order) error
	// Snapshot returns the full ledger as CSV bytes for reporting.
	Snapshot(ctx context.Context) ([]byte, error)
}
