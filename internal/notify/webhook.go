package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
)

// WebhookOptions parameterise an HTTP gateway notifier.
type WebhookOptions struct {
	URL       string
	AuthToken string
	Timeout   time.Duration
}

// WebhookNotifier posts trigger events as JSON to an HTTP gateway. It backs
// both the push and SMS channels; the gateway owns device/number routing.
type WebhookNotifier struct {
	channel alert.Channel
	opts    WebhookOptions
	client  *http.Client
	logger  zerolog.Logger
}

// NewWebhookNotifier constructs a gateway notifier for the given channel.
func NewWebhookNotifier(channel alert.Channel, opts WebhookOptions, logger zerolog.Logger) *WebhookNotifier {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		channel: channel,
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "notify_"+string(channel)).Logger(),
	}
}

// Channel reports which channel kind this notifier serves.
func (n *WebhookNotifier) Channel() alert.Channel {
	return n.channel
}

type webhookPayload struct {
	AlertID  string `json:"alertId"`
	UserID   string `json:"userId"`
	Symbol   string `json:"symbol"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// Notify posts the event to the gateway and treats any non-2xx as failure.
func (n *WebhookNotifier) Notify(ctx context.Context, event alert.TriggerEvent) error {
	if strings.TrimSpace(n.opts.URL) == "" {
		return fmt.Errorf("%s gateway URL not configured", n.channel)
	}

	body, err := json.Marshal(webhookPayload{
		AlertID:  event.AlertID.String(),
		UserID:   event.UserID.String(),
		Symbol:   event.Symbol,
		Message:  RenderMessage(event),
		Priority: string(event.Priority),
	})
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", n.channel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.opts.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", n.channel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.opts.AuthToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", n.channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s gateway returned status %d", n.channel, resp.StatusCode)
	}

	n.logger.Info().
		Stringer("alert_id", event.AlertID).
		Str("symbol", event.Symbol).
		Msg("notification delivered")
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
