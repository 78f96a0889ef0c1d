package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/donor-sync/internal/anabix"
	"github.com/Veraticus/donor-sync/internal/cli"
	"github.com/spf13/cobra"
)

func contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Inspect Anabix contacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Download all contacts and print how many there are",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := newDirectory()
			if err != nil {
				return err
			}
			return countContacts(cmd.Context(), dir, cmd.OutOrStdout())
		},
	})

	return cmd
}

func countContacts(ctx context.Context, dir anabix.Directory, out io.Writer) error {
	contacts, err := dir.ListContacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to download contacts: %w", err)
	}

	withEmail := 0
	for _, c := range contacts {
		if c.Email != "" {
			withEmail++
		}
	}

	fmt.Fprintln(out, cli.RenderBox("Anabix contacts", cli.RenderRows([]cli.Row{
		{Label: "Contacts", Value: fmt.Sprint(len(contacts))},
		{Label: "With email", Value: fmt.Sprint(withEmail)},
	})))
	return nil
}
