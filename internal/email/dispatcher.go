package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/redmonkez12/signup-api/internal/logging"
	"github.com/redmonkez12/signup-api/templates"
)

const (
	VerificationSubject = "Email Confirmation"

	defaultRetryInterval = 500 * time.Millisecond
)

// Dispatcher renders account emails and hands them to a Sender, retrying
// failed deliveries with exponential backoff.
type Dispatcher struct {
	sender   Sender
	apiURL   string
	linkTTL  time.Duration
	retries  int
	interval time.Duration
	tmpl     *template.Template
}

type DispatcherConfig struct {
	// APIURL is the public base URL verification links point at.
	APIURL string
	// LinkTTL is shown in the email; zero hides the expiry notice.
	LinkTTL time.Duration
	// Retries is the number of extra attempts after the first failure.
	Retries       int
	RetryInterval time.Duration
}

func NewDispatcher(sender Sender, cfg DispatcherConfig) (*Dispatcher, error) {
	tmpl, err := template.ParseFS(templates.EmailFS, "email/verification.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	return &Dispatcher{
		sender:   sender,
		apiURL:   cfg.APIURL,
		linkTTL:  cfg.LinkTTL,
		retries:  cfg.Retries,
		interval: cfg.RetryInterval,
		tmpl:     tmpl,
	}, nil
}

// VerificationLink builds the URL the user follows to confirm their email.
func (d *Dispatcher) VerificationLink(confirmationToken string) string {
	return fmt.Sprintf("%s/api/confirmation/%s", d.apiURL, url.PathEscape(confirmationToken))
}

// SendVerification emails the verification link for confirmationToken.
func (d *Dispatcher) SendVerification(ctx context.Context, toEmail, username, confirmationToken string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := d.renderVerification(username, d.VerificationLink(confirmationToken))
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(d.retries), retry.NewExponential(d.interval))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := d.sender.Send(ctx, toEmail, VerificationSubject, body); err != nil {
			logger.Warn("verification email attempt failed", "email", toEmail, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send email after %d attempts: %w", attempt, err)
	}

	logger.Info("verification email sent", "email", toEmail, "attempts", attempt)
	return nil
}

func (d *Dispatcher) renderVerification(username, link string) (string, error) {
	data := struct {
		Username         string
		VerificationLink string
		ExpiresIn        string
	}{
		Username:         username,
		VerificationLink: link,
		ExpiresIn:        formatTTL(d.linkTTL),
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%time.Hour == 0 && d > time.Hour:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Hour:
		return "1 hour"
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
