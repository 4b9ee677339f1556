package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodcourt-system/internal/catalog"
	"foodcourt-system/internal/config"
	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/models"
	"foodcourt-system/internal/session"
)

type fakeArchive struct {
	orders []*models.Order
}

func (f *fakeArchive) Append(ctx context.Context, order *models.Order) error {
	f.orders = append(f.orders, order)
	return nil
}

type fakeNotifier struct {
	published int
	fail      bool
}

func (f *fakeNotifier) PublishOrderFinalized(ctx context.Context, msg *models.OrderFinalizedMessage) error {
	if f.fail {
		return models.ExternalServiceError{Service: "notifications", Err: errors.New("broker down")}
	}
	f.published++
	return nil
}

const menuCSV = "Item,Half,Full,Image\nVeg Biryani,80,150,\nPaneer Tikka,0,220,\n"

func newTestHandler(t *testing.T, notifier session.Notifier) (*Handler, *fakeArchive) {
	t.Helper()

	cat, err := catalog.Parse(strings.NewReader(menuCSV), "menu.csv")
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}

	rates := models.RateConfig{TaxRatePercent: 5}
	sessions := session.NewManager(rates, time.UTC, 900*time.Second, 60*time.Second)
	ledger := &fakeArchive{}
	payments := config.PaymentsConfig{
		UPIEnabled:   true,
		UPIPayeeID:   "shop@ybl",
		UPIPayeeName: "Shop",
	}

	log := logger.New("order-service-test")
	service := NewService(sessions, cat, ledger, notifier, nil, payments, log)
	return NewHandler(service, log), ledger
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	w := doJSON(t, mux, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return resp["session_id"]
}

func TestGetMenu(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	w := doJSON(t, mux, http.MethodGet, "/menu", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Items []models.MenuEntry `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode menu: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("got %d menu items, want 2", len(resp.Items))
	}
}

func TestFullOrderFlow(t *testing.T) {
	notifier := &fakeNotifier{}
	h, ledger := newTestHandler(t, notifier)
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	base := "/sessions/" + id

	// Add two portions, then one more of the same key: merged line.
	w := doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Veg Biryani", Size: "full", Quantity: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("add item status = %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Veg Biryani", Size: "full", Quantity: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("repeat add status = %d", w.Code)
	}

	var bill Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	if len(bill.Lines) != 1 || bill.Lines[0].Quantity != 3 {
		t.Fatalf("bill lines = %+v, want one merged line of 3", bill.Lines)
	}
	if bill.Totals.Subtotal != 450 {
		t.Fatalf("subtotal = %v, want 450", bill.Totals.Subtotal)
	}

	// Customer details, then confirm.
	w = doJSON(t, mux, http.MethodPost, base+"/customer", customerRequest{
		Name: "A", Phone: "9990001111", Email: "a@example.com",
		FulfillmentType: "pickup", PickupTime: "Ready in 20-30 minutes",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("set customer status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, mux, http.MethodPost, base+"/confirm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", w.Code, w.Body.String())
	}

	// UPI reference carries the grand total with tax.
	w = doJSON(t, mux, http.MethodPost, base+"/payment", paymentRequest{Method: "upi"})
	if w.Code != http.StatusOK {
		t.Fatalf("select payment status = %d: %s", w.Code, w.Body.String())
	}
	var instructions session.PaymentInstructions
	if err := json.Unmarshal(w.Body.Bytes(), &instructions); err != nil {
		t.Fatalf("decode instructions: %v", err)
	}
	if instructions.UPI == nil || !strings.Contains(instructions.UPI.Link, "am=472.50") {
		t.Fatalf("UPI instructions = %+v, want amount 472.50", instructions.UPI)
	}

	// Payment done: archived exactly once, before any notification.
	w = doJSON(t, mux, http.MethodPost, base+"/payment/done", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("payment done status = %d: %s", w.Code, w.Body.String())
	}
	if len(ledger.orders) != 1 {
		t.Fatalf("archive has %d orders, want 1", len(ledger.orders))
	}
	if notifier.published != 0 {
		t.Fatal("nothing may be published before finalize")
	}

	w = doJSON(t, mux, http.MethodPost, base+"/finalize", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize status = %d: %s", w.Code, w.Body.String())
	}
	if notifier.published != 1 {
		t.Fatalf("published = %d, want 1", notifier.published)
	}
}

func TestConfirmWithoutPhoneRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	base := "/sessions/" + id

	doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Veg Biryani", Size: "half", Quantity: 1})
	doJSON(t, mux, http.MethodPost, base+"/customer", customerRequest{Name: "A", FulfillmentType: "pickup"})

	w := doJSON(t, mux, http.MethodPost, base+"/confirm", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "phone") {
		t.Fatalf("error body %q should name the phone field", w.Body.String())
	}
}

func TestFinalizeWithFailingNotifierStillSucceeds(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	h, ledger := newTestHandler(t, notifier)
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	base := "/sessions/" + id

	doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Paneer Tikka", Size: "full", Quantity: 1})
	doJSON(t, mux, http.MethodPost, base+"/customer", customerRequest{Name: "A", Phone: "9990001111"})
	doJSON(t, mux, http.MethodPost, base+"/confirm", nil)
	doJSON(t, mux, http.MethodPost, base+"/payment", paymentRequest{Method: "cash_on_pickup"})
	doJSON(t, mux, http.MethodPost, base+"/payment/done", nil)

	w := doJSON(t, mux, http.MethodPost, base+"/finalize", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize status = %d, notification failure must not fail the request", w.Code)
	}
	if !strings.Contains(w.Body.String(), "warning") {
		t.Fatalf("body %q should carry the notification warning", w.Body.String())
	}
	if len(ledger.orders) != 1 {
		t.Fatalf("archive has %d orders, want the already-archived 1", len(ledger.orders))
	}
}

func TestRemoveMissingLineIsNoOp(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	base := "/sessions/" + id

	doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Veg Biryani", Size: "half", Quantity: 1})

	w := doJSON(t, mux, http.MethodDelete, base+"/items", removeItemRequest{ItemName: "Veg Biryani", Size: "full"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 no-op", w.Code)
	}
}

func TestAddUnknownItemRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	id := createSession(t, mux)

	w := doJSON(t, mux, http.MethodPost, "/sessions/"+id+"/items", addItemRequest{ItemName: "Dosa", Size: "full", Quantity: 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	w := doJSON(t, mux, http.MethodGet, "/sessions/nope/bill", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestClearStartsOver(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	base := "/sessions/" + id

	doJSON(t, mux, http.MethodPost, base+"/items", addItemRequest{ItemName: "Veg Biryani", Size: "half", Quantity: 2})

	w := doJSON(t, mux, http.MethodPost, base+"/clear", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}

	w = doJSON(t, mux, http.MethodGet, base+"/bill", nil)
	var bill Bill
	if err := json.Unmarshal(w.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	if len(bill.Lines) != 0 || bill.State != "empty" {
		t.Fatalf("bill after clear = %+v", bill)
	}
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	w := doJSON(t, mux, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("health status = %v", resp["status"])
	}
}

func TestInvalidJSONRejected(t *testing.T) {
	h, _ := newTestHandler(t, &fakeNotifier{})
	mux := h.SetupRoutes()

	id := createSession(t, mux)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/sessions/%s/items", id), strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
