package notification

import (
	"context"
	"log/slog"
)

// devMailer logs emails instead of sending them. Used in local
// development where no Postmark credentials exist.
type devMailer struct {
	log *slog.Logger
}

// NewDevMailer returns a Mailer that writes messages to the logger.
func NewDevMailer(log *slog.Logger) Mailer {
	if log == nil {
		log = slog.Default()
	}
	return &devMailer{log: log}
}

func (m *devMailer) Send(ctx context.Context, msg Message) error {
	m.log.InfoContext(ctx, "dev mailer: email suppressed",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag))
	return nil
}
