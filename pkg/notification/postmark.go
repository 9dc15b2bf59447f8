package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Config holds Postmark mailer configuration.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail  string `env:"NOTIFICATION_SENDER_EMAIL,required"`
}

var ErrFailedToSend = errors.New("failed to send notification email")

type postmarkMailer struct {
	client *postmark.Client
	cfg    Config
}

// NewPostmarkMailer creates a Postmark-backed Mailer.
func NewPostmarkMailer(cfg Config) (Mailer, error) {
	if cfg.ServerToken == "" || cfg.AccountToken == "" {
		return nil, errors.New("postmark tokens are required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("sender email is required")
	}
	return &postmarkMailer{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		cfg:    cfg,
	}, nil
}

func (m *postmarkMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:       m.cfg.SenderEmail,
		To:         msg.To,
		Subject:    msg.Subject,
		HTMLBody:   msg.BodyHTML,
		Tag:        msg.Tag,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
