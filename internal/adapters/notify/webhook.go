// Package notify delivers notifications and ranking summaries to chat
// webhooks and renders their text.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
	"github.com/okian/pwnwatch/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxContent     = 2000
)

var kindColors = map[model.ObjectKind]int{
	model.KindMachine:   0x86be3c,
	model.KindChallenge: 0x9fef00,
	model.KindFortress:  0x9400ff,
	model.KindEndgame:   0x0086ff,
}

type payload struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *embedAuthor `json:"author,omitempty"`
	Thumbnail   *embedImage  `json:"thumbnail,omitempty"`
}

type embedAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

// Webhook posts JSON messages to a chat webhook URL.
type Webhook struct {
	url      string
	username string
	http     *http.Client
	log      logger.Logger
}

// NewWebhook creates a Webhook for url.
func NewWebhook(url string, opts ...Option) *Webhook {
	w := &Webhook{
		url:      strings.TrimSpace(url),
		username: "pwnwatch",
		http:     &http.Client{Timeout: defaultTimeout},
		log:      logger.Named("notify"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dispatch posts one activity notification.
func (w *Webhook) Dispatch(ctx context.Context, it model.NotificationItem) error {
	e := embed{
		Title:       Message(it),
		Color:       kindColors[it.Event.Kind],
		Timestamp:   it.Event.Time.UTC().Format(time.RFC3339),
		Author:      &embedAuthor{Name: it.MemberName, IconURL: it.Avatar},
		Description: detail(it.Event),
	}
	if it.Event.Avatar != "" {
		e.Thumbnail = &embedImage{URL: it.Event.Avatar}
	}
	return w.post(ctx, payload{Username: w.username, Embeds: []embed{e}})
}

func detail(ev model.ActivityEvent) string {
	if ev.Points > 0 {
		return fmt.Sprintf("+%d points", ev.Points)
	}
	return ""
}

// DispatchSummary posts the ranking tables as a code block.
func (w *Webhook) DispatchSummary(ctx context.Context, s ranking.Summary) error {
	return w.post(ctx, payload{Username: w.username, Content: truncate(SummaryText(s))})
}

// Send posts plain text.
func (w *Webhook) Send(ctx context.Context, text string) error {
	return w.post(ctx, payload{Username: w.username, Content: truncate(text)})
}

func (w *Webhook) post(ctx context.Context, p payload) error {
	if w.url == "" {
		return ErrNoWebhook
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

// truncate keeps content within the webhook's message limit, closing an
// open code block.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxContent {
		return s
	}
	cut := string(r[:maxContent-8])
	if strings.HasPrefix(s, "```") {
		return cut + "\n…\n```"
	}
	return cut + "…"
}
