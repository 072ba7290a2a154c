// Package notify_service sends the operator a short SMS report after a
// pipeline run. Notification is best-effort: a delivery failure is logged
// and never fails the run that triggered it.
package notify_service

import (
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/lichun/polisearch/config"
)

type SMSNotifier struct {
	client     *twilio.RestClient
	fromNumber string
	toNumber   string
	logger     *slog.Logger
}

// NewSMSNotifier returns nil when Twilio credentials are not configured;
// callers treat a nil notifier as "notifications disabled".
func NewSMSNotifier(cfg *config.Config, logger *slog.Logger) *SMSNotifier {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.AlertSMSTo == "" {
		return nil
	}
	return &SMSNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}),
		fromNumber: cfg.TwilioFromNumber,
		toNumber:   cfg.AlertSMSTo,
		logger:     logger,
	}
}

// NotifyRunReport sends a one-line summary for a completed folder run.
func (n *SMSNotifier) NotifyRunReport(folder, report string) {
	body := fmt.Sprintf("[polisearch] %s: %s", folder, report)
	params := &twilioApi.CreateMessageParams{
		To:   &n.toNumber,
		From: &n.fromNumber,
		Body: &body,
	}

	message, err := n.client.Api.CreateMessage(params)
	if err != nil {
		n.logger.Error("Failed to send run report SMS",
			slog.String("folder", folder),
			slog.String("error", err.Error()))
		return
	}

	sid := ""
	if message.Sid != nil {
		sid = *message.Sid
	}
	n.logger.Info("Run report SMS sent",
		slog.String("folder", folder),
		slog.String("message_sid", sid))
}
