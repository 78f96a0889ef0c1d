package main

import (
	"github.com/spf13/cobra"
)

func probeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Sync only the first saved pledge",
		Long: `Run the full sync for the first pledge in the snapshot. Useful to check
credentials, list and custom field ids before a full run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSyncMode(cmd, true)
		},
	}
	addSyncFlags(cmd)
	return cmd
}
