// Package report emails the owner the consolidated orders ledger, the
// end-of-day job the restaurant runs on a schedule.
package report

import (
	"context"
	"fmt"
	"time"

	"foodcourt-system/internal/archive"
	"foodcourt-system/internal/logger"
	"foodcourt-system/internal/models"
)

// Sender delivers a rendered email payload
type Sender interface {
	Send(payload *models.EmailPayload) error
}

// Reporter builds and sends the daily orders report
type Reporter struct {
	ledger archive.Archive
	mailer Sender
	owner  string
	logger *logger.Logger
}

// NewReporter creates a daily report sender addressed to the owner
func NewReporter(ledger archive.Archive, mailer Sender, owner string, log *logger.Logger) *Reporter {
	return &Reporter{
		ledger: ledger,
		mailer: mailer,
		owner:  owner,
		logger: log,
	}
}

// Send snapshots the ledger and emails it to the owner as a CSV
// attachment.
func (r *Reporter) Send(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	if r.owner == "" {
		return models.ExternalServiceError{
			Service: "report",
			Err:     fmt.Errorf("owner email is not configured"),
		}
	}

	snapshot, err := r.ledger.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot orders ledger: %w", err)
	}

	payload := &models.EmailPayload{
		To:         r.owner,
		Subject:    "Daily Orders Report - Dhaliwal Food Court",
		BodyText:   "Attached is the daily consolidated orders.csv report.",
		Attachment: snapshot,
		Filename:   "orders.csv",
	}

	if err := r.mailer.Send(payload); err != nil {
		return err
	}

	r.logger.Info("report_sent", "Daily orders report emailed", requestID, map[string]interface{}{
		"to":         r.owner,
		"size_bytes": len(snapshot),
		"date":       time.Now().UTC().Format("2006-01-02"),
	})
	return nil
}
