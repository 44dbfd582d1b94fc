package main

import (
	"context"
	"errors"

	"github.com/okian/pwnwatch/internal/adapters/notify"
	"github.com/okian/pwnwatch/internal/adapters/platform"
	"github.com/okian/pwnwatch/internal/adapters/repository"
	service "github.com/okian/pwnwatch/internal/app"
	"github.com/okian/pwnwatch/internal/config"
	"github.com/okian/pwnwatch/internal/scheduler"
	"github.com/okian/pwnwatch/pkg/logger"
)

// components are the long-lived pieces built from configuration.
type components struct {
	store    *repository.SQLStore
	svc      *service.Service
	policy   scheduler.Policy
	calendar scheduler.Calendar
}

func (c *components) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// build opens the store and wires the service. The platform client and the
// webhooks come from cfg; empty webhook URLs fall back to log output.
func build(ctx context.Context, cfg *config.Config) (*components, error) {
	if err := cfg.RequirePlatform(); err != nil {
		return nil, err
	}
	policy, calendar, err := scheduler.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	client := platform.New(cfg.Platform.BaseURL, cfg.Platform.AppToken, cfg.Platform.TeamID,
		platform.WithTimeout(cfg.Platform.Timeout),
		platform.WithMaxRetries(cfg.Platform.MaxRetries),
		platform.WithUserAgent(cfg.Platform.UserAgent),
	)

	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithIgnored(cfg.Ignored()),
		service.WithLedgerSize(cfg.DispatchLedgerSize),
		service.WithTopN(cfg.Ranking.TopN),
		service.WithIntervalFunc(policy.Interval),
		service.WithAlerter(notify.NewAlerter(cfg.Webhooks.Alerts, notify.WithTimeout(cfg.Webhooks.Timeout))),
	}
	if cfg.Webhooks.Team != "" {
		hook := notify.NewWebhook(cfg.Webhooks.Team, notify.WithTimeout(cfg.Webhooks.Timeout))
		opts = append(opts, service.WithDispatcher(hook), service.WithSummaryDispatcher(hook))
	}

	return &components{
		store:    store,
		svc:      service.New(store, client, opts...),
		policy:   policy,
		calendar: calendar,
	}, nil
}

func isPartial(err error) bool {
	return errors.Is(err, service.ErrPartialPass)
}
