package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"foodcourt-system/internal/models"
)

// CSVArchive appends order rows to a flat file ledger. A mutex serializes
// writers; each record is built in memory and flushed with a single write
// so a failed append never leaves a partial row behind.
type CSVArchive struct {
	mu   sync.Mutex
	path string
}

// NewCSVArchive creates a ledger writer for the given file path
func NewCSVArchive(path string) *CSVArchive {
	return &CSVArchive{path: path}
}

// Append writes one order row, creating the file with its header on first
// write.
func (a *CSVArchive) Append(ctx context.Context, order *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// An empty pre-existing file (touched by an operator, or left by a
	// crashed run) still needs the header row.
	info, statErr := os.Stat(a.path)
	writeHeader := os.IsNotExist(statErr) || (statErr == nil && info.Size() == 0)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if writeHeader {
		if err := w.Write(Header); err != nil {
			return models.ExternalServiceError{Service: "order-archive", Err: err}
		}
	}
	if err := w.Write(recordFor(order)); err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}

	return nil
}

// Snapshot returns the ledger file contents
func (a *CSVArchive) Snapshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	return data, nil
}

func recordFor(order *models.Order) []string {
	return []string{
		order.OrderID,
		order.CreatedAt.Format("02-01-2006 15:04"),
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Email,
		order.Customer.Address,
		order.ItemsSummary(),
		string(order.FulfillmentType),
		order.PickupTime,
		string(order.PaymentMethod),
		money(order.Totals.Subtotal),
		money(order.Totals.DeliveryCharge),
		money(order.Totals.TaxAmount),
		money(order.Totals.Surcharge),
		money(order.Totals.Discount),
		money(order.Totals.GrandTotal),
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
