package models

import (
	"fmt"
	"strings"
	"time"
)

// Size represents a menu portion size
type Size string

const (
	SizeHalf Size = "half"
	SizeFull Size = "full"
)

// ParseSize validates a portion size string
func ParseSize(s string) (Size, error) {
	switch Size(strings.ToLower(s)) {
	case SizeHalf:
		return SizeHalf, nil
	case SizeFull:
		return SizeFull, nil
	default:
		return "", ValidationError{Field: "size", Message: "size must be one of: half, full"}
	}
}

// FulfillmentType represents how the customer receives an order
type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// ParseFulfillmentType validates a fulfillment type string
func ParseFulfillmentType(s string) (FulfillmentType, error) {
	switch FulfillmentType(strings.ToLower(s)) {
	case FulfillmentPickup:
		return FulfillmentPickup, nil
	case FulfillmentDelivery:
		return FulfillmentDelivery, nil
	default:
		return "", ValidationError{Field: "fulfillment_type", Message: "fulfillment_type must be one of: pickup, delivery"}
	}
}

// PaymentMethod represents a configured payment channel
type PaymentMethod string

const (
	PaymentNone          PaymentMethod = ""
	PaymentCashOnPickup  PaymentMethod = "cash_on_pickup"
	PaymentUPI           PaymentMethod = "upi"
	PaymentOnlineGateway PaymentMethod = "online_gateway"
)

// ParsePaymentMethod validates a payment method string
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(s)) {
	case PaymentCashOnPickup:
		return PaymentCashOnPickup, nil
	case PaymentUPI:
		return PaymentUPI, nil
	case PaymentOnlineGateway:
		return PaymentOnlineGateway, nil
	default:
		return "", ValidationError{Field: "payment_method", Message: "payment_method must be one of: cash_on_pickup, upi, online_gateway"}
	}
}

// MenuEntry represents one item on the restaurant menu. Entries are owned
// by the catalog source and read-only to the ordering core.
type MenuEntry struct {
	Name      string  `json:"name"`
	HalfPrice float64 `json:"half_price"`
	FullPrice float64 `json:"full_price"`
	ImageRef  string  `json:"image_ref,omitempty"`
}

// PriceFor returns the unit price for the given portion size
func (m MenuEntry) PriceFor(size Size) float64 {
	if size == SizeHalf {
		return m.HalfPrice
	}
	return m.FullPrice
}

// LineItem represents one (item, size) entry in a cart with an aggregated
// quantity. Identity key is (ItemName, Size).
type LineItem struct {
	ItemName  string  `json:"item_name"`
	Size      Size    `json:"size"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// LineTotal returns unit price times quantity
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// RateConfig holds the billing rates in effect for one order. A copy is
// frozen at confirmation time so admin edits never change an in-flight
// order's total.
type RateConfig struct {
	TaxRatePercent       float64 `json:"tax_rate_percent"`
	DeliveryRatePercent  float64 `json:"delivery_rate_percent"`
	DiscountAbsolute     float64 `json:"discount_absolute"`
	SurchargeRatePercent float64 `json:"surcharge_rate_percent"`
}

// Totals is the itemized billing breakdown derived from a cart and a rate
// configuration. It is never stored independently of its inputs.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DeliveryCharge float64 `json:"delivery_charge"`
	TaxAmount      float64 `json:"tax_amount"`
	Surcharge      float64 `json:"surcharge"`
	Discount       float64 `json:"discount"`
	GrandTotal     float64 `json:"grand_total"`
}

// CustomerInfo holds the customer contact fields collected before checkout
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Validate checks the fields required to confirm an order. Address is
// only required for delivery orders.
func (c CustomerInfo) Validate(fulfillment FulfillmentType) error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Field: "name", Message: "customer name is required"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ValidationError{Field: "phone", Message: "customer phone is required"}
	}
	if fulfillment == FulfillmentDelivery && strings.TrimSpace(c.Address) == "" {
		return ValidationError{Field: "address", Message: "address is required for delivery orders"}
	}
	return nil
}

// Order is the immutable archived record of a confirmed order. It is
// created exactly once, at payment confirmation.
type Order struct {
	OrderID         string          `json:"order_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Customer        CustomerInfo    `json:"customer"`
	LineItems       []LineItem      `json:"line_items"`
	Totals          Totals          `json:"totals"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	FulfillmentType FulfillmentType `json:"fulfillment_type"`
	PickupTime      string          `json:"pickup_time,omitempty"`
}

// ItemsSummary renders the archived one-line item list, e.g.
// "2x Veg Biryani(half); 1x Paneer Tikka(full)".
func (o Order) ItemsSummary() string {
	parts := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		parts = append(parts, fmt.Sprintf("%dx %s(%s)", li.Quantity, li.ItemName, li.Size))
	}
	return strings.Join(parts, "; ")
}
