package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maviecommerce/mavie/internal/email"
	"github.com/maviecommerce/mavie/internal/models"
)

// OperatorAlerter emails the operator when webhook events exhaust their
// retries. Those events represent money state the system could not reconcile
// on its own.
type OperatorAlerter struct {
	provider      email.Provider
	operatorEmail string
	shopName      string
	logger        *slog.Logger
}

func NewOperatorAlerter(provider email.Provider, operatorEmail, shopName string, logger *slog.Logger) *OperatorAlerter {
	return &OperatorAlerter{
		provider:      provider,
		operatorEmail: operatorEmail,
		shopName:      shopName,
		logger:        logger,
	}
}

func (a *OperatorAlerter) NotifyExhaustedEvents(ctx context.Context, events []*models.PaystackEvent) error {
	if a.provider == nil || a.operatorEmail == "" {
		a.logger.Warn("operator alerting not configured, exhausted events unreported", "count", len(events))
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%d webhook event(s) exhausted their processing retries and need manual review:\n\n", len(events))
	for _, event := range events {
		fmt.Fprintf(&body, "- event %s (%s), attempts: %d, last error: %s\n",
			event.EventID, event.EventType, event.ProcessingAttempts, event.LastProcessingError)
		if event.OrderID != nil {
			fmt.Fprintf(&body, "  order: %s\n", event.OrderID)
		}
	}
	body.WriteString("\nEach event stays stored with its payload; reprocess after fixing the cause.\n")

	return a.provider.SendEmail(ctx, &email.Email{
		To:      a.operatorEmail,
		Subject: fmt.Sprintf("[%s] %d webhook events need manual review", a.shopName, len(events)),
		Text:    body.String(),
	})
}
