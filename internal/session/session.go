// Package session drives one customer interaction through the order
// lifecycle: building a cart, confirming customer details, selecting and
// confirming payment, and finalizing with notifications. All transitions
// are synchronous and guarded; expiry is checked on every touch rather
// than by a background timer.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"foodcourt-system/internal/cart"
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/payments"
	"foodcourt-system/internal/pricing"
)

// State is the lifecycle stage of one customer interaction
type State string

const (
	StateEmpty                       State = "empty"
	StateBuilding                    State = "building"
	StateAwaitingPaymentMethod       State = "awaiting_payment_method"
	StateAwaitingPaymentConfirmation State = "awaiting_payment_confirmation"
	StateConfirmed                   State = "confirmed"
	StateFinalized                   State = "finalized"
)

// Archiver appends confirmed orders to the ledger
type Archiver interface {
	Append(ctx context.Context, order *models.Order) error
}

// LinkCreator obtains hosted checkout links from the payment gateway
type LinkCreator interface {
	CreatePaymentLink(ctx context.Context, amount float64, description string, customer models.CustomerInfo) (string, error)
}

// Notifier publishes finalized orders to the notification channel
type Notifier interface {
	PublishOrderFinalized(ctx context.Context, msg *models.OrderFinalizedMessage) error
}

// PaymentInstructions is returned when a payment method is selected
type PaymentInstructions struct {
	Method      models.PaymentMethod   `json:"method"`
	UPI         *payments.UPIReference `json:"upi,omitempty"`
	GatewayLink string                 `json:"gateway_link,omitempty"`
}

// orderSeq disambiguates orders confirmed within the same wall-clock second
var orderSeq atomic.Uint64

// Session is the explicit state for one customer interaction. It replaces
// ambient globals: every operation goes through it and Reset restores the
// constructor state. The mutex serializes concurrent requests carrying the
// same session ID, so a double-click or client retry cannot race a
// transition.
type Session struct {
	ID string

	mu           sync.Mutex
	state        State
	cart         *cart.Cart
	customer     models.CustomerInfo
	fulfillment  models.FulfillmentType
	pickupTime   string
	rateSnapshot models.RateConfig
	method       models.PaymentMethod
	order        *models.Order

	lastActivityAt time.Time
	finalizedAt    time.Time

	loc *time.Location
	now func() time.Time
}

// New creates an empty session in the given restaurant timezone
func New(id string, loc *time.Location) *Session {
	s := &Session{
		ID:   id,
		loc:  loc,
		now:  time.Now,
		cart: cart.New(),
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.state = StateEmpty
	s.cart.Clear()
	s.customer = models.CustomerInfo{}
	s.fulfillment = models.FulfillmentPickup
	s.pickupTime = ""
	s.rateSnapshot = models.RateConfig{}
	s.method = models.PaymentNone
	s.order = nil
	s.lastActivityAt = s.now()
	s.finalizedAt = time.Time{}
}

// Reset clears the cart, customer fields and payment state. It is the
// single recovery action for starting a new order.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// State returns the current lifecycle stage
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lines returns the current cart lines
func (s *Session) Lines() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// Customer returns the current customer info
func (s *Session) Customer() models.CustomerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// Order returns the archived order record, nil before payment confirmation
func (s *Session) Order() *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

func (s *Session) touch() {
	s.lastActivityAt = s.now()
}

// CheckExpiry applies the two time thresholds and clears the session when
// one is exceeded. It reports whether the session was cleared. Callers run
// it before every operation; there is no background timer.
func (s *Session) CheckExpiry(idle, finalizedLinger time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if !s.finalizedAt.IsZero() && now.Sub(s.finalizedAt) > finalizedLinger {
		s.reset()
		return true
	}
	if s.state != StateEmpty && s.finalizedAt.IsZero() && now.Sub(s.lastActivityAt) > idle {
		s.reset()
		return true
	}
	return false
}

// AddItem adds a menu entry to the cart, merging repeat (item, size) keys.
// The first add moves the session from Empty to Building.
func (s *Session) AddItem(entry models.MenuEntry, size models.Size, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateEmpty:
		s.state = StateBuilding
	case StateBuilding:
	default:
		return models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot add items in state %s", s.state)}
	}

	s.cart.AddItem(entry.Name, size, entry.PriceFor(size), quantity)
	s.touch()
	return nil
}

// RemoveItem removes a cart line. A missing line is reported as
// NotFoundError, which callers treat as a no-op.
func (s *Session) RemoveItem(name string, size models.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBuilding {
		return models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot remove items in state %s", s.state)}
	}

	err := s.cart.RemoveItem(name, size)
	s.touch()
	return err
}

// SetCustomer records customer details while the order is still being
// built. From confirmation onward the fields are read-only.
func (s *Session) SetCustomer(info models.CustomerInfo, fulfillment models.FulfillmentType, pickupTime string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEmpty && s.state != StateBuilding {
		return models.ValidationError{Field: "state", Message: "customer details are read-only after confirmation"}
	}

	s.customer = info
	s.fulfillment = fulfillment
	s.pickupTime = pickupTime
	s.touch()
	return nil
}

// Bill computes the current itemized totals. While building, live rates
// apply; once confirmed, the snapshot frozen at confirmation is used.
func (s *Session) Bill(liveRates models.RateConfig) models.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	rates := liveRates
	if s.state != StateEmpty && s.state != StateBuilding {
		rates = s.rateSnapshot
	}
	return pricing.ComputeTotals(s.cart.Lines(), rates, s.method)
}

// Confirm validates the customer details and moves the order into payment
// selection, freezing the rate configuration so later admin edits cannot
// change this order's total.
func (s *Session) Confirm(liveRates models.RateConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateBuilding {
		return models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot confirm in state %s", s.state)}
	}
	if s.cart.IsEmpty() {
		return models.ValidationError{Field: "items", Message: "cart is empty"}
	}
	if err := s.customer.Validate(s.fulfillment); err != nil {
		return err
	}

	s.rateSnapshot = liveRates
	s.state = StateAwaitingPaymentMethod
	s.touch()
	return nil
}

// SelectPayment picks a payment method and produces its out-of-band
// reference. A gateway failure is non-fatal: the error is surfaced and the
// state stays at payment selection.
func (s *Session) SelectPayment(ctx context.Context, method models.PaymentMethod, upiEnabled bool, payeeID, payeeName string, gateway LinkCreator) (*PaymentInstructions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPaymentMethod {
		return nil, models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot select payment in state %s", s.state)}
	}

	totals := pricing.ComputeTotals(s.cart.Lines(), s.rateSnapshot, method)
	instructions := &PaymentInstructions{Method: method}

	switch method {
	case models.PaymentCashOnPickup:
	case models.PaymentUPI:
		if !upiEnabled {
			return nil, models.ValidationError{Field: "payment_method", Message: "UPI payments are not accepted"}
		}
		ref, err := payments.NewUPIReference(payeeID, payeeName, totals.GrandTotal)
		if err != nil {
			return nil, err
		}
		instructions.UPI = ref
	case models.PaymentOnlineGateway:
		if gateway == nil {
			return nil, models.ValidationError{Field: "payment_method", Message: "online payments are not accepted"}
		}
		link, err := gateway.CreatePaymentLink(ctx, totals.GrandTotal, "Food court order", s.customer)
		if err != nil {
			return nil, err
		}
		instructions.GatewayLink = link
	default:
		return nil, models.ValidationError{Field: "payment_method", Message: "unknown payment method"}
	}

	s.method = method
	s.state = StateAwaitingPaymentConfirmation
	s.touch()
	return instructions, nil
}

// ConfirmPayment records the customer's payment assertion. At this exact
// transition the order record is created, priced from the frozen rate
// snapshot, and appended to the archive. A failed append aborts the
// transition entirely.
func (s *Session) ConfirmPayment(ctx context.Context, ledger Archiver) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPaymentConfirmation {
		return nil, models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot confirm payment in state %s", s.state)}
	}

	createdAt := s.now().In(s.loc)
	order := &models.Order{
		OrderID:         generateOrderID(createdAt),
		CreatedAt:       createdAt,
		Customer:        s.customer,
		LineItems:       s.cart.Lines(),
		Totals:          pricing.ComputeTotals(s.cart.Lines(), s.rateSnapshot, s.method),
		PaymentMethod:   s.method,
		FulfillmentType: s.fulfillment,
		PickupTime:      s.pickupTime,
	}

	if err := ledger.Append(ctx, order); err != nil {
		return nil, err
	}

	s.order = order
	s.state = StateConfirmed
	s.touch()
	return order, nil
}

// Finalize publishes the notification for an already archived order. The
// publish is best-effort: a failure is returned as a warning but never
// reverts the finalized state or the archived record.
func (s *Session) Finalize(ctx context.Context, notifier Notifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConfirmed {
		return models.ValidationError{Field: "state", Message: fmt.Sprintf("cannot finalize in state %s", s.state)}
	}

	s.state = StateFinalized
	s.finalizedAt = s.now()

	msg := &models.OrderFinalizedMessage{
		Order:       *s.order,
		FinalizedAt: s.finalizedAt,
	}
	return notifier.PublishOrderFinalized(ctx, msg)
}

// generateOrderID combines the wall-clock second with a monotonic suffix
// so two orders confirmed in the same second never collide.
func generateOrderID(t time.Time) string {
	seq := orderSeq.Add(1) % 1000
	return fmt.Sprintf("%s%03d", t.Format("20060102150405"), seq)
}
