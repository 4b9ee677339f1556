package database

// Order ledger queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (order_id, created_at, customer_name, phone, email, address,
			fulfillment_type, pickup_time, payment_method,
			subtotal, delivery_charge, tax_amount, surcharge, discount, grand_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, name, size, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	GetAllOrdersSQL = `
		SELECT order_id, created_at, customer_name, phone, email, address,
			   fulfillment_type, pickup_time, payment_method,
			   subtotal, delivery_charge, tax_amount, surcharge, discount, grand_total
		FROM orders
		ORDER BY created_at ASC`

	GetOrderItemsSQL = `
		SELECT oi.name, oi.size, oi.unit_price, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.order_id = $1
		ORDER BY oi.id ASC`
)
