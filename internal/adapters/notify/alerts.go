package notify

import (
	"context"
	"strings"

	"github.com/okian/pwnwatch/pkg/logger"
)

// Alerter forwards operational errors to a separate webhook. Delivery is
// best effort; without a URL it only logs.
type Alerter struct {
	hook *Webhook
	log  logger.Logger
}

// NewAlerter creates an Alerter. An empty url disables posting.
func NewAlerter(url string, opts ...Option) *Alerter {
	a := &Alerter{log: logger.Named("alerts")}
	if strings.TrimSpace(url) != "" {
		a.hook = NewWebhook(url, opts...)
	}
	return a
}

// Alert logs err and posts it to the alert webhook.
func (a *Alerter) Alert(ctx context.Context, msg string, err error) {
	if a == nil {
		return
	}
	a.log.Error(ctx, msg, logger.Error(err))
	if a.hook == nil {
		return
	}
	text := "```[-] ERROR: " + msg
	if err != nil {
		text += "\n\n" + err.Error()
	}
	text += "```"
	if perr := a.hook.Send(context.WithoutCancel(ctx), text); perr != nil {
		a.log.Warn(ctx, "alert delivery failed", logger.Error(perr))
	}
}
