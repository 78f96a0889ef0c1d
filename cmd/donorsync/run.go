package main

import (
	"time"

	"github.com/Veraticus/donor-sync/internal/cli"
	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch from Darujme.cz, then sync into Anabix",
		RunE:  runAll,
	}
	addSyncFlags(cmd)
	cmd.Flags().String("timeframe", "", "how far back to fetch: week, year or a number of days")
	return cmd
}

func runAll(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if tf, _ := cmd.Flags().GetString("timeframe"); tf != "" {
		cfg.Darujme.Timeframe = tf
	}
	applySyncFlags(cmd, cfg)

	if err := cfg.ValidateFetch(); err != nil {
		return common.NewUserError("Darujme.cz credentials are not configured", err)
	}
	if err := cfg.ValidateSync(); err != nil {
		return common.NewUserError("Anabix is not configured", err)
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.Watch(cmd.Context())
	defer interrupts.Stop()

	fetcher, err := newDarujmeClient(cfg)
	if err != nil {
		return err
	}
	if err := fetchSnapshots(ctx, cfg, fetcher, time.Now(), cmd.OutOrStdout()); err != nil {
		return err
	}

	crm, err := newAnabixClient(cfg)
	if err != nil {
		return err
	}
	progress := cli.NewProgressBar(cmd.ErrOrStderr(), "Syncing pledges")
	return syncSnapshots(ctx, cfg, crm, cmd.OutOrStdout(), progress, false)
}
