package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/cli"
	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/config"
	"github.com/Veraticus/donor-sync/internal/engine"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the saved snapshots into Anabix",
		Long: `Read the pledges and projects snapshots, classify donors, create missing
contacts, add donors to the target list and record one activity per
successful pledge on the project's deal.`,
		RunE: runSync,
	}
	addSyncFlags(cmd)
	return cmd
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-dedupe", false, "create activities without checking for existing ones")
	cmd.Flags().Int("list-id", 0, "Anabix list donors are added to (default 57)")
}

// applySyncFlags copies explicitly set sync flags onto cfg.
func applySyncFlags(cmd *cobra.Command, cfg *config.Config) {
	if noDedupe, _ := cmd.Flags().GetBool("no-dedupe"); noDedupe {
		cfg.Sync.CheckDuplicates = false
	}
	if cmd.Flags().Changed("list-id") {
		cfg.Sync.ListID, _ = cmd.Flags().GetInt("list-id")
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	return runSyncMode(cmd, false)
}

func runSyncMode(cmd *cobra.Command, one bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySyncFlags(cmd, cfg)
	if err := cfg.ValidateSync(); err != nil {
		return common.NewUserError("Anabix is not configured", err)
	}

	crm, err := newAnabixClient(cfg)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.Watch(cmd.Context())
	defer interrupts.Stop()

	var progress engine.Progress
	if !one {
		progress = cli.NewProgressBar(cmd.ErrOrStderr(), "Syncing pledges")
	}
	return syncSnapshots(ctx, cfg, crm, cmd.OutOrStdout(), progress, one)
}

// syncSnapshots loads both snapshots and syncs them. Missing or empty
// snapshot data halts the sync with an error summary but is not a command
// failure; the next fetch repairs it.
func syncSnapshots(ctx context.Context, cfg *config.Config, crm anabix.CRM, out io.Writer, progress engine.Progress, one bool) error {
	title := "Sync results"
	if one {
		title = "Probe results"
	}

	store := newStore(cfg)
	pledges, err := store.LoadPledges()
	if err != nil {
		return reportHalted(out, title, &engine.Results{}, fmt.Errorf("cannot read pledges, run 'donorsync fetch' first: %w", err))
	}
	projects, err := store.LoadProjects()
	if err != nil {
		return reportHalted(out, title, &engine.Results{}, fmt.Errorf("cannot read projects, run 'donorsync fetch' first: %w", err))
	}

	syncer := engine.New(crm, engineConfig(cfg))
	syncer.SetProgress(progress)

	run := syncer.Run
	if one {
		run = syncer.RunOne
	}

	results, err := run(ctx, pledges, projects)
	switch {
	case errors.Is(err, common.ErrNoPledges), errors.Is(err, common.ErrNoProjects):
		return reportHalted(out, title, results, fmt.Errorf("nothing to sync: %w", err))
	case err == nil, errors.Is(err, context.Canceled):
		fmt.Fprintln(out, cli.RenderResults(title, results))
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func reportHalted(out io.Writer, title string, results *engine.Results, err error) error {
	slog.Error("Sync halted", "error", err)
	results.Errors = append(results.Errors, err.Error())
	fmt.Fprintln(out, cli.RenderResults(title, results))
	return nil
}
