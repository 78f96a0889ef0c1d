package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/donor-sync/internal/cli"
	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/config"
	"github.com/Veraticus/donor-sync/internal/darujme"
	"github.com/Veraticus/donor-sync/internal/engine"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download pledges and projects from Darujme.cz",
		Long: `Download projects and the pledges made within the timeframe, keep the
pledges with at least one successful transaction and save both snapshots.

The timeframe is 'week', 'year' or a number of days.`,
		RunE: runFetch,
	}

	cmd.Flags().String("timeframe", "", "how far back to fetch: week, year or a number of days")
	_ = viper.BindPFlag("darujme.timeframe", cmd.Flags().Lookup("timeframe"))

	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateFetch(); err != nil {
		return common.NewUserError("Darujme.cz credentials are not configured", err)
	}

	client, err := newDarujmeClient(cfg)
	if err != nil {
		return err
	}

	return fetchSnapshots(cmd.Context(), cfg, client, time.Now(), cmd.OutOrStdout())
}

func fetchSnapshots(ctx context.Context, cfg *config.Config, fetcher darujme.PledgeFetcher, now time.Time, out io.Writer) error {
	since, err := darujme.ResolveTimeframe(cfg.Darujme.Timeframe, now)
	if err != nil {
		return common.NewUserError("Invalid timeframe", err)
	}

	summary, err := engine.FetchSnapshots(ctx, fetcher, newStore(cfg), since)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Fprintln(out, cli.RenderFetchSummary(summary, cfg.Snapshot.PledgesPath, cfg.Snapshot.ProjectsPath))
	return nil
}
