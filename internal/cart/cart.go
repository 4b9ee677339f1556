// Package cart implements the in-progress bill for one customer
// interaction. Lines are unique by (item name, size); repeat adds merge
// into the existing line instead of duplicating it.
package cart

import (
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/pricing"
)

// Cart is an ordered sequence of line items, unique by (ItemName, Size).
// The subtotal is always recomputed from the lines; there is no cached
// accumulator to drift out of sync.
type Cart struct {
	lines []models.LineItem
}

// New creates an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem merges the given quantity into an existing line with the same
// (name, size) key, or appends a new line. Quantities below one are
// clamped to one.
func (c *Cart) AddItem(name string, size models.Size, unitPrice float64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.lines {
		if c.lines[i].ItemName == name && c.lines[i].Size == size {
			c.lines[i].Quantity += quantity
			return
		}
	}

	c.lines = append(c.lines, models.LineItem{
		ItemName:  name,
		Size:      size,
		UnitPrice: unitPrice,
		Quantity:  quantity,
	})
}

// RemoveItem deletes the line with the given key. A missing line reports
// NotFoundError, which callers treat as a no-op.
func (c *Cart) RemoveItem(name string, size models.Size) error {
	for i := range c.lines {
		if c.lines[i].ItemName == name && c.lines[i].Size == size {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return models.NotFoundError{Kind: "cart line", Key: name + "/" + string(size)}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a snapshot copy of the current line items
func (c *Cart) Lines() []models.LineItem {
	snapshot := make([]models.LineItem, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}

// Subtotal is a derived read over the current lines
func (c *Cart) Subtotal() float64 {
	return pricing.Subtotal(c.lines)
}
