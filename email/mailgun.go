package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunConfig holds the Mailgun credentials and sender address.
type MailgunConfig struct {
	Key    string
	Domain string
	From   string
	// APIBase overrides the API endpoint, e.g. mailgun.APIBaseEU.
	APIBase  string
	Template Template
}

// MailgunSender sends verification emails through the Mailgun API.
type MailgunSender struct {
	mg  *mailgun.MailgunImpl
	cfg MailgunConfig
}

// NewMailgunSender rejects a config without key, domain or sender.
func NewMailgunSender(cfg MailgunConfig) (*MailgunSender, error) {
	if cfg.Key == "" || cfg.Domain == "" || cfg.From == "" {
		return nil, errors.New("invalid Mailgun configuration")
	}
	mg := mailgun.NewMailgun(cfg.Domain, cfg.Key)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return &MailgunSender{mg: mg, cfg: cfg}, nil
}

func (s *MailgunSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	message := s.mg.NewMessage(s.cfg.From, s.cfg.Template.subject(), s.cfg.Template.plain(token))
	message.SetHtml(s.cfg.Template.html(token))
	if err := message.AddRecipient(to); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}

	if _, _, err := s.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}
