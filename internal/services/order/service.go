package order

import (
	"context"
	"errors"

	"foodcourt-system/internal/catalog"
	"foodcourt-system/internal/config"
	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/session"
)

// Service coordinates the catalog, the per-customer sessions, the order
// archive and the notification channel.
type Service struct {
	sessions *session.Manager
	catalog  *catalog.Catalog
	ledger   session.Archiver
	notifier session.Notifier
	gateway  session.LinkCreator
	payments config.PaymentsConfig
	logger   *logger.Logger
}

// NewService wires the order service collaborators together
func NewService(sessions *session.Manager, cat *catalog.Catalog, ledger session.Archiver,
	notifier session.Notifier, gateway session.LinkCreator, payments config.PaymentsConfig,
	log *logger.Logger) *Service {

	return &Service{
		sessions: sessions,
		catalog:  cat,
		ledger:   ledger,
		notifier: notifier,
		gateway:  gateway,
		payments: payments,
		logger:   log,
	}
}

// Bill is the customer-facing view of a session's cart and totals
type Bill struct {
	SessionID string            `json:"session_id"`
	State     session.State     `json:"state"`
	Lines     []models.LineItem `json:"lines"`
	Totals    models.Totals     `json:"totals"`
}

// CreateSession starts a new customer interaction
func (s *Service) CreateSession() *session.Session {
	return s.sessions.Create()
}

// Menu returns the catalog entries in source order
func (s *Service) Menu() []models.MenuEntry {
	return s.catalog.Entries()
}

// AddItem looks the item up in the catalog and adds it to the session
// cart. Prices always come from the catalog, never from the client.
func (s *Service) AddItem(sessionID, itemName string, size models.Size, quantity int) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	entry, err := s.catalog.Lookup(itemName)
	if err != nil {
		return err
	}

	return sess.AddItem(entry, size, quantity)
}

// RemoveItem removes a cart line. A line that is already gone is a no-op.
func (s *Service) RemoveItem(sessionID, itemName string, size models.Size) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	err = sess.RemoveItem(itemName, size)
	var notFound models.NotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// BillOf returns the session's lines and live totals
func (s *Service) BillOf(sessionID string) (*Bill, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return &Bill{
		SessionID: sess.ID,
		State:     sess.State(),
		Lines:     sess.Lines(),
		Totals:    sess.Bill(s.sessions.Rates()),
	}, nil
}

// SetCustomer records customer details while the order is being built
func (s *Service) SetCustomer(sessionID string, info models.CustomerInfo, fulfillment models.FulfillmentType, pickupTime string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.SetCustomer(info, fulfillment, pickupTime)
}

// Confirm moves the session into payment selection
func (s *Service) Confirm(sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Confirm(s.sessions.Rates())
}

// SelectPayment picks a payment method and returns its instructions
func (s *Service) SelectPayment(ctx context.Context, sessionID string, method models.PaymentMethod) (*session.PaymentInstructions, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.SelectPayment(ctx, method,
		s.payments.UPIEnabled, s.payments.UPIPayeeID, s.payments.UPIPayeeName, s.gateway)
}

// ConfirmPayment archives the order and marks it confirmed
func (s *Service) ConfirmPayment(ctx context.Context, sessionID string) (*models.Order, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.ConfirmPayment(ctx, s.ledger)
}

// Finalize publishes the best-effort notification for a confirmed order
func (s *Service) Finalize(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Finalize(ctx, s.notifier)
}

// Clear resets the session so a new order can start
func (s *Service) Clear(sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.Reset()
	return nil
}

// HealthCheck reports whether the service can take orders
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.catalog != nil
}
