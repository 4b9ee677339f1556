// Package payments generates the out-of-band payment references used at
// checkout: UPI deep links with a scannable QR code, and hosted payment
// links from the online gateway collaborator.
package payments

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// UPIReference is the payment request handed to the customer for
// out-of-band scanning.
type UPIReference struct {
	Link   string `json:"link"`
	QRPNG  []byte `json:"qr_png"`
	Amount string `json:"amount"`
}

// BuildUPILink encodes payee, amount and currency into a upi:// deep link.
// The amount is always rendered with two decimal places.
func BuildUPILink(payeeID, payeeName string, amount float64) string {
	q := url.Values{}
	q.Set("pa", payeeID)
	q.Set("pn", payeeName)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}

// NewUPIReference builds the deep link and its QR code image
func NewUPIReference(payeeID, payeeName string, amount float64) (*UPIReference, error) {
	link := BuildUPILink(payeeID, payeeName, amount)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode UPI QR code: %w", err)
	}

	return &UPIReference{
		Link:   link,
		QRPNG:  png,
		Amount: fmt.Sprintf("%.2f", amount),
	}, nil
}
