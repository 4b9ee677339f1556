package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/models"
)

// Handler handles HTTP requests for the order service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

type addItemRequest struct {
	ItemName string `json:"item_name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type removeItemRequest struct {
	ItemName string `json:"item_name"`
	Size     string `json:"size"`
}

type customerRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	FulfillmentType string `json:"fulfillment_type"`
	PickupTime      string `json:"pickup_time"`
}

type paymentRequest struct {
	Method string `json:"method"`
}

// CreateSession handles POST /sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.service.CreateSession()
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": sess.ID,
		"state":      sess.State(),
	})
}

// GetMenu handles GET /menu
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": h.service.Menu(),
	})
}

// AddItem handles POST /sessions/{id}/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req addItemRequest
	if !h.decode(w, r, &req, requestID) {
		return
	}

	size, err := models.ParseSize(req.Size)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	if err := h.service.AddItem(r.PathValue("id"), req.ItemName, size, req.Quantity); err != nil {
		h.writeError(w, err, requestID)
		return
	}

	bill, err := h.service.BillOf(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, bill)
}

// RemoveItem handles DELETE /sessions/{id}/items
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req removeItemRequest
	if !h.decode(w, r, &req, requestID) {
		return
	}

	size, err := models.ParseSize(req.Size)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	if err := h.service.RemoveItem(r.PathValue("id"), req.ItemName, size); err != nil {
		h.writeError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBill handles GET /sessions/{id}/bill
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.BillOf(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err, requestIDFrom(r))
		return
	}
	h.writeJSON(w, http.StatusOK, bill)
}

// SetCustomer handles POST /sessions/{id}/customer
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req customerRequest
	if !h.decode(w, r, &req, requestID) {
		return
	}

	fulfillment := models.FulfillmentPickup
	if req.FulfillmentType != "" {
		var err error
		fulfillment, err = models.ParseFulfillmentType(req.FulfillmentType)
		if err != nil {
			h.writeError(w, err, requestID)
			return
		}
	}

	info := models.CustomerInfo{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
	if err := h.service.SetCustomer(r.PathValue("id"), info, fulfillment, req.PickupTime); err != nil {
		h.writeError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Confirm handles POST /sessions/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	if err := h.service.Confirm(r.PathValue("id")); err != nil {
		h.writeError(w, err, requestID)
		return
	}

	bill, err := h.service.BillOf(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, bill)
}

// SelectPayment handles POST /sessions/{id}/payment
func (h *Handler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req paymentRequest
	if !h.decode(w, r, &req, requestID) {
		return
	}

	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	instructions, err := h.service.SelectPayment(ctx, r.PathValue("id"), method)
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}
	h.writeJSON(w, http.StatusOK, instructions)
}

// ConfirmPayment handles POST /sessions/{id}/payment/done
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	order, err := h.service.ConfirmPayment(ctx, r.PathValue("id"))
	if err != nil {
		h.writeError(w, err, requestID)
		return
	}

	h.logger.Debug("order_confirmed", "Order archived", requestID, map[string]interface{}{
		"order_id":    order.OrderID,
		"grand_total": order.Totals.GrandTotal,
	})
	h.writeJSON(w, http.StatusOK, order)
}

// Finalize handles POST /sessions/{id}/finalize
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	err := h.service.Finalize(ctx, r.PathValue("id"))

	var external models.ExternalServiceError
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "finalized"})
	case errors.As(err, &external):
		// The order is already archived; notification failure is a warning.
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "finalized",
			"warning": fmt.Sprintf("notification failed: %v", external),
		})
	default:
		h.writeError(w, err, requestID)
	}
}

// Clear handles POST /sessions/{id}/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.PathValue("id")); err != nil {
		h.writeError(w, err, requestIDFrom(r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)

	status := http.StatusOK
	body := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
	}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
	}
	h.writeJSON(w, status, body)
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /menu", h.withLogging(h.GetMenu))
	mux.HandleFunc("POST /sessions", h.withLogging(h.CreateSession))
	mux.HandleFunc("POST /sessions/{id}/items", h.withLogging(h.AddItem))
	mux.HandleFunc("DELETE /sessions/{id}/items", h.withLogging(h.RemoveItem))
	mux.HandleFunc("GET /sessions/{id}/bill", h.withLogging(h.GetBill))
	mux.HandleFunc("POST /sessions/{id}/customer", h.withLogging(h.SetCustomer))
	mux.HandleFunc("POST /sessions/{id}/confirm", h.withLogging(h.Confirm))
	mux.HandleFunc("POST /sessions/{id}/payment", h.withLogging(h.SelectPayment))
	mux.HandleFunc("POST /sessions/{id}/payment/done", h.withLogging(h.ConfirmPayment))
	mux.HandleFunc("POST /sessions/{id}/finalize", h.withLogging(h.Finalize))
	mux.HandleFunc("POST /sessions/{id}/clear", h.withLogging(h.Clear))
	mux.HandleFunc("GET /health", h.withLogging(h.HealthCheck))

	return mux
}

// decode parses a JSON request body, rejecting unknown fields
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return false
	}
	return true
}

// writeError maps the error taxonomy to HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, err error, requestID string) {
	var (
		validation models.ValidationError
		notFound   models.NotFoundError
		external   models.ExternalServiceError
		schema     models.SchemaError
	)

	switch {
	case errors.As(err, &validation):
		h.writeErrorResponse(w, http.StatusUnprocessableEntity, validation.Error(), requestID)
	case errors.As(err, &notFound):
		h.writeErrorResponse(w, http.StatusNotFound, notFound.Error(), requestID)
	case errors.As(err, &external):
		h.writeErrorResponse(w, http.StatusBadGateway, external.Error(), requestID)
	case errors.As(err, &schema):
		h.writeErrorResponse(w, http.StatusInternalServerError, schema.Error(), requestID)
	default:
		h.logger.Error("request_failed", "Unhandled error", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
