package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
)

// EmailOptions parameterise the SMTP notifier.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// EmailNotifier delivers trigger events over SMTP.
type EmailNotifier struct {
	opts   EmailOptions
	logger zerolog.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifier constructs an SMTP notifier.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		opts:   opts,
		logger: logger.With().Str("component", "notify_email").Logger(),
		send:   smtp.SendMail,
	}
}

// Channel reports the email channel kind.
func (n *EmailNotifier) Channel() alert.Channel {
	return alert.ChannelEmail
}

// Notify sends the rendered event as a plain-text mail.
func (n *EmailNotifier) Notify(ctx context.Context, event alert.TriggerEvent) error {
	if n.opts.Host == "" || n.opts.From == "" || n.opts.To == "" {
		return fmt.Errorf("email notifier not fully configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Stock alert: %s %s", event.Symbol, event.ConditionDescription)
	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", n.opts.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", n.opts.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("\r\n")
	msg.WriteString(RenderMessage(event))

	var auth smtp.Auth
	if n.opts.Username != "" {
		auth = smtp.PlainAuth("", n.opts.Username, n.opts.Password, n.opts.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.opts.Host, n.opts.Port)
	if err := n.send(addr, auth, n.opts.From, []string{n.opts.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Info().
		Stringer("alert_id", event.AlertID).
		Str("symbol", event.Symbol).
		Msg("notification delivered")
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
