package application

import (
	"context"
	"log/slog"

	"voice-email/internal/domain"
)

// Mailer hands a message to the mail transport. A nil error means the
// transport accepted it for delivery.
type Mailer interface {
	Send(ctx context.Context, email domain.OutgoingEmail) error
}

// LogMailer only logs outgoing messages.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, email domain.OutgoingEmail) error {
	m.Logger.Info("dry run: email not sent",
		"to", email.To,
		"subject", email.Subject,
		"body_bytes", len(email.Body),
	)
	return nil
}
