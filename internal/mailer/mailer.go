// Package mailer delivers rendered letters over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/salaryreview/internal/core"
	"github.com/wneessen/go-mail"
)

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 30 * time.Second

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // defaults to Username
	Timeout  time.Duration
}

// sender is the part of *mail.Client the Mailer needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer implements core.Dispatcher. Each Dispatch dials, sends one message
// and hangs up; there is no retry.
type Mailer struct {
	client  sender
	from    string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Mailer from cfg. Authentication is only used when a username
// is set; STARTTLS is used when the server offers it.
func New(cfg Config, logger *slog.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []mail.Option{
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return newMailer(client, cfg, logger)
}

func newMailer(client sender, cfg Config, logger *slog.Logger) (*Mailer, error) {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, errors.New("smtp sender address is required (SMTP_FROM or SMTP_USER)")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		client:  client,
		from:    from,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "mailer"),
	}, nil
}

// Dispatch sends msg. Every failure is returned as *core.DispatchError.
func (m *Mailer) Dispatch(ctx context.Context, msg core.Message) error {
	out, err := buildMessage(m.from, msg)
	if err != nil {
		return &core.DispatchError{To: msg.To, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return &core.DispatchError{To: msg.To, Err: err}
	}

	m.logger.Debug("message delivered",
		"to", msg.To,
		"attachment", msg.Attachment.Filename,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// buildMessage converts a core.Message into a plain-text MIME message with
// the letter attached.
func buildMessage(from string, msg core.Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)

	if att := msg.Attachment; att.Filename != "" {
		ct := att.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		out.AttachReadSeeker(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(ct)))
	}
	return out, nil
}
