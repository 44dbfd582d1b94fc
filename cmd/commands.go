package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/pwnwatch/internal/adapters/notify"
	"github.com/okian/pwnwatch/internal/adapters/repository"
	service "github.com/okian/pwnwatch/internal/app"
	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/types"
	"github.com/okian/pwnwatch/pkg/logger"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one activity pass and print the dispatched notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := build(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			rep, err := c.svc.SyncOnce(cmd.Context())
			if perr := printSync(cmd.OutOrStdout(), opts.Format, rep); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newRankCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Force one ranking pass and dispatch its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := build(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.svc.SyncRoster(ctx); err != nil {
				logger.Get().Warn(ctx, "ranking on the local roster", logger.Error(err))
			}
			rep, err := c.svc.RankOnce(ctx)
			if perr := printRank(cmd.OutOrStdout(), opts.Format, rep); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
}

func runMigrate(ctx context.Context, w io.Writer, opts *rootOptions) error {
	store, err := repository.Open(ctx, opts.cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(w, map[string]any{"driver": store.Driver(), "version": v})
	}
	_, err = fmt.Fprintf(w, "%s schema at version %d\n", store.Driver(), v)
	return err
}

// notificationOut is the printed shape of one delivered notification.
type notificationOut struct {
	Time     string `json:"time"`
	MemberID int64  `json:"member_id"`
	Member   string `json:"member"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

type syncOut struct {
	Cycle         string            `json:"cycle"`
	Checked       int               `json:"checked"`
	Seeded        int               `json:"seeded"`
	FetchFailed   []int64           `json:"fetch_failed,omitempty"`
	Failed        int               `json:"failed"`
	Suppressed    int               `json:"suppressed"`
	Notifications []notificationOut `json:"notifications"`
}

func printSync(w io.Writer, format string, rep service.SyncReport) error {
	out := syncOut{
		Cycle:         rep.CycleID,
		Checked:       rep.Checked,
		Seeded:        rep.Seeded,
		FetchFailed:   rep.FetchFailed,
		Failed:        rep.Failed,
		Suppressed:    rep.Suppressed,
		Notifications: make([]notificationOut, 0, len(rep.Delivered)),
	}
	for _, it := range rep.Delivered {
		out.Notifications = append(out.Notifications, notificationOut{
			Time:     model.FormatTime(it.Key.Time),
			MemberID: it.MemberID,
			Member:   it.MemberName,
			Kind:     string(it.Event.Kind),
			Message:  notify.Message(it),
		})
	}
	if format == "json" {
		return writeJSON(w, out)
	}

	for _, n := range out.Notifications {
		if _, err := fmt.Fprintf(w, "%s  %s %s\n", n.Time, n.Member, n.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "cycle %s: %d checked, %d seeded, %d sent, %d failed\n",
		out.Cycle, out.Checked, out.Seeded, len(out.Notifications), out.Failed)
	return err
}

func printRank(w io.Writer, format string, rep service.RankReport) error {
	if format == "json" {
		return writeJSON(w, types.FromSummary(rep.Summary))
	}
	_, err := fmt.Fprintln(w, notify.SummaryText(rep.Summary))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
