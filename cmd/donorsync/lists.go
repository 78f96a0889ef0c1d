package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/cli"
	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/spf13/cobra"
)

func listsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Inspect Anabix contact lists",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "find <title>",
		Short: "Print the id of the list with exactly this title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := newDirectory()
			if err != nil {
				return err
			}
			return findList(cmd.Context(), dir, args[0], cmd.OutOrStdout())
		},
	})

	return cmd
}

func newDirectory() (anabix.Directory, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateSync(); err != nil {
		return nil, common.NewUserError("Anabix is not configured", err)
	}
	client, err := newAnabixClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func findList(ctx context.Context, dir anabix.Directory, title string, out io.Writer) error {
	id, found, err := dir.FindListByTitle(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to look up list: %w", err)
	}
	if !found {
		return common.NewUserError(fmt.Sprintf("No list titled %q", title), common.ErrNotFound)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %d", title, id)))
	return nil
}
