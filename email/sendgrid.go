package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the SendGrid API key and sender identity.
type SendGridConfig struct {
	Key      string
	From     string
	FromName string
	// Host overrides the API host, e.g. for a sandbox.
	Host     string
	Template Template
}

// SendGridSender sends verification emails through the SendGrid v3 API.
type SendGridSender struct {
	cfg SendGridConfig
}

// NewSendGridSender rejects a config without key or sender.
func NewSendGridSender(cfg SendGridConfig) (*SendGridSender, error) {
	if cfg.Key == "" || cfg.From == "" {
		return nil, errors.New("invalid SendGrid configuration")
	}
	return &SendGridSender{cfg: cfg}, nil
}

func (s *SendGridSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.From)
	message := mail.NewSingleEmail(
		from,
		s.cfg.Template.subject(),
		mail.NewEmail("", to),
		s.cfg.Template.plain(token),
		s.cfg.Template.html(token),
	)

	request := sendgrid.GetRequest(s.cfg.Key, "/v3/mail/send", s.cfg.Host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid: failed to send email, status code: %d", response.StatusCode)
	}
	return nil
}
