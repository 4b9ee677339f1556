package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"

	"foodcourt-system/internal/database"
	"foodcourt-system/internal/models"
)

// PostgresArchive persists the order ledger in PostgreSQL. The order row
// and its line items are inserted in one transaction so a failed append
// leaves nothing behind.
type PostgresArchive struct {
	db *database.DB
}

// NewPostgresArchive creates a ledger writer over the given pool
func NewPostgresArchive(db *database.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

// Append inserts the order record and its items, all-or-nothing
func (a *PostgresArchive) Append(ctx context.Context, order *models.Order) error {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	defer tx.Rollback(ctx)

	var rowID int
	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		order.OrderID, order.CreatedAt,
		order.Customer.Name, order.Customer.Phone, order.Customer.Email, order.Customer.Address,
		string(order.FulfillmentType), order.PickupTime, string(order.PaymentMethod),
		order.Totals.Subtotal, order.Totals.DeliveryCharge, order.Totals.TaxAmount,
		order.Totals.Surcharge, order.Totals.Discount, order.Totals.GrandTotal,
	).Scan(&rowID)
	if err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}

	for _, li := range order.LineItems {
		_, err := tx.Exec(ctx, database.InsertOrderItemSQL,
			rowID, li.ItemName, string(li.Size), li.UnitPrice, li.Quantity)
		if err != nil {
			return models.ExternalServiceError{Service: "order-archive", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}

	return nil
}

// Snapshot renders the whole ledger as CSV bytes with the fixed header
func (a *PostgresArchive) Snapshot(ctx context.Context) ([]byte, error) {
	rows, err := a.db.Query(ctx, database.GetAllOrdersSQL)
	if err != nil {
		return nil, models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	defer rows.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}

	for rows.Next() {
		var order models.Order
		var createdAt time.Time
		var fulfillment, payment string

		err := rows.Scan(&order.OrderID, &createdAt,
			&order.Customer.Name, &order.Customer.Phone, &order.Customer.Email, &order.Customer.Address,
			&fulfillment, &order.PickupTime, &payment,
			&order.Totals.Subtotal, &order.Totals.DeliveryCharge, &order.Totals.TaxAmount,
			&order.Totals.Surcharge, &order.Totals.Discount, &order.Totals.GrandTotal)
		if err != nil {
			return nil, models.ExternalServiceError{Service: "order-archive", Err: err}
		}

		order.CreatedAt = createdAt
		order.FulfillmentType = models.FulfillmentType(fulfillment)
		order.PaymentMethod = models.PaymentMethod(payment)

		if err := a.loadItems(ctx, &order); err != nil {
			return nil, err
		}

		if err := w.Write(recordFor(&order)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, models.ExternalServiceError{Service: "order-archive", Err: err}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *PostgresArchive) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := a.db.Query(ctx, database.GetOrderItemsSQL, order.OrderID)
	if err != nil {
		return models.ExternalServiceError{Service: "order-archive", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var li models.LineItem
		var size string
		if err := rows.Scan(&li.ItemName, &size, &li.UnitPrice, &li.Quantity); err != nil {
			return models.ExternalServiceError{Service: "order-archive", Err: err}
		}
		li.Size = models.Size(size)
		order.LineItems = append(order.LineItems, li)
	}
	return rows.Err()
}
