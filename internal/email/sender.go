package email

import (
	"context"

	"github.com/redmonkez12/signup-api/internal/logging"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogSender writes emails to the logger instead of delivering them.
// Used in development when no SMTP relay is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the envelope at info level. The body carries live confirmation
// links and is only logged at debug level.
func (s *LogSender) Send(ctx context.Context, to, subject, html string) error {
	s.logger.InfoContext(ctx, "email not delivered (log sender)",
		"to", to,
		"subject", subject,
		"body_bytes", len(html),
	)
	s.logger.DebugContext(ctx, "email body (log sender)", "to", to, "body", html)
	return nil
}
