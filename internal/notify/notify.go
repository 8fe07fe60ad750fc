// Package notify delivers operator notifications through a webhook.
//
// Delivery is best effort: a failed post is logged and dropped, never
// surfaced to the caller. The scanner must not stall because a chat service
// is down.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scrapyard-labs/lootscan/internal/version"
)

// Severity selects the embed color.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityColors = map[Severity]int{
	SeverityInfo:    0x3498DB,
	SeveritySuccess: 0x2ECC71,
	SeverityWarning: 0xF1C40F,
	SeverityError:   0xE74C3C,
}

// Message is one notification.
type Message struct {
	Title    string
	Body     string
	Severity Severity
}

// Notifier delivers messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// Webhook posts messages to a chat webhook as embeds.
type Webhook struct {
	url        string
	username   string
	httpClient *http.Client
	logger     *slog.Logger

	now func() time.Time
}

// NewWebhook creates a webhook notifier. httpClient and logger may be nil.
func NewWebhook(url string, httpClient *http.Client, logger *slog.Logger) *Webhook {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:        url,
		username:   "lootscan",
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Notify posts msg. Failures are logged and swallowed.
func (w *Webhook) Notify(ctx context.Context, msg Message) {
	color, ok := severityColors[msg.Severity]
	if !ok {
		color = severityColors[SeverityInfo]
	}

	payload := webhookPayload{
		Username: w.username,
		Embeds: []embed{
			{
				Title:       msg.Title,
				Description: msg.Body,
				Color:       color,
				Footer: &embedFooter{
					Text: fmt.Sprintf("%s • %s", w.now().Format("2006-01-02 15:04:05"), version.Version),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("encode notification failed", "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("create notification request failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("send notification failed", "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		w.logger.Error("notification rejected",
			"status", resp.StatusCode,
			"body", string(detail),
		)
	}
}

// Nop discards all messages. Used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}
