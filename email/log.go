package email

import (
	"context"
	"log/slog"
)

// LogSender writes verification tokens to the log instead of sending mail.
// Use it for local development only.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender logs to log, or to slog.Default when log is nil.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, to, token string) error {
	s.log.InfoContext(ctx, "verification email", slog.String("to", to), slog.String("token", token))
	return nil
}
