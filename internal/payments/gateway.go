package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"foodcourt-system/internal/models"
)

// GatewayClient requests hosted payment links from the online gateway.
// Failures never advance the order state; they surface as
// ExternalServiceError warnings.
type GatewayClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGatewayClient creates a payment-link client with the reference 20s
// network timeout.
func NewGatewayClient(baseURL, apiKey string) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// linkRequest is the wire payload sent to the gateway
type linkRequest struct {
	AmountMinorUnits int64        `json:"amount_minor_units"`
	Currency         string       `json:"currency"`
	Description      string       `json:"description"`
	Customer         linkCustomer `json:"customer"`
}

type linkCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type linkResponse struct {
	URL string `json:"url"`
}

// CreatePaymentLink requests a hosted checkout URL for the given amount in
// rupees. The amount is converted to minor units (paise) on the wire.
func (g *GatewayClient) CreatePaymentLink(ctx context.Context, amount float64, description string, customer models.CustomerInfo) (string, error) {
	payload := linkRequest{
		AmountMinorUnits: minorUnits(amount),
		Currency:         "INR",
		Description:      description,
		Customer: linkCustomer{
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment link request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment_links", bytes.NewBuffer(body))
	if err != nil {
		return "", models.ExternalServiceError{Service: "payment-gateway", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", models.ExternalServiceError{Service: "payment-gateway", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", models.ExternalServiceError{
			Service: "payment-gateway",
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw),
		}
	}

	var link linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return "", models.ExternalServiceError{Service: "payment-gateway", Err: err}
	}
	if link.URL == "" {
		return "", models.ExternalServiceError{Service: "payment-gateway", Err: fmt.Errorf("empty payment link in response")}
	}

	return link.URL, nil
}

// minorUnits converts rupees to paise. math.Round keeps negative amounts
// correct; naive truncation would shift them by one paisa.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
