package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/Veraticus/donor-sync/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "donorsync",
		Short: "Sync Darujme.cz donors and donations into Anabix CRM",
		Long: `donorsync downloads pledges and projects from Darujme.cz, matches donors
against Anabix contacts, creates the missing ones, and records every successful
donation as an activity on the project's deal.

Credentials are read from the environment, a .env file or the config file.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/donorsync/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with DARUJME_* and ANABIX_* variables")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(fetchCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(runCmd())
	root.AddCommand(probeCmd())
	root.AddCommand(listsCmd())
	root.AddCommand(contactsCmd())
	root.AddCommand(versionCmd())

	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/donorsync", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DONORSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

// loadConfig builds the typed configuration from the global viper instance.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "donorsync %s\n", version)
		},
	}
}
