package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/pwnwatch/internal/adapters/http/api"
	"github.com/okian/pwnwatch/internal/adapters/http/swagger"
	service "github.com/okian/pwnwatch/internal/app"
	"github.com/okian/pwnwatch/internal/scheduler"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the read API until interrupted",
		Long: `Run the tracker: poll member activity on the configured cadence, take
ranking snapshots in the configured windows and serve the read API.

Example:
  PWNWATCH_PLATFORM__APP_TOKEN=... PWNWATCH_PLATFORM__TEAM_ID=1234 pwnwatch serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	log := logger.Get()
	c, err := build(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error(ctx, "closing store", logger.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	api.NewServer(c.svc, opts.cfg.MaxMembersLimit).Register(mux)
	swagger.Register(mux)
	srv := &http.Server{
		Addr:              opts.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", opts.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
			cancel()
		}
	}()

	go startServiceMetricsUpdater(ctx, c.svc)

	sched := scheduler.New(
		func(ctx context.Context) error {
			_, err := c.svc.SyncOnce(ctx)
			return err
		},
		func(ctx context.Context) error {
			_, err := c.svc.RankOnce(ctx)
			return err
		},
		scheduler.WithPolicy(c.policy),
		scheduler.WithCalendar(c.calendar),
		scheduler.WithStateStore(c.store),
		scheduler.WithLogger(logger.Named("scheduler")),
	)
	_ = sched.Run(ctx)

	log.Info(ctx, "shutting down server...")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	select {
	case err := <-srvErr:
		return err
	default:
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes the gauges GetStats maintains.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
