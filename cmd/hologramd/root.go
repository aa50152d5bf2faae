package main

import (
	"fmt"

	"github.com/OCAP2/hologram/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd(version, commit, date string) *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:   "hologramd",
		Short: "Hologram service: registry, animations and score leaderboards",
		Long: `hologramd keeps a registry of floating text and item holograms, drives
their frame animations and renders score leaderboards from a SQLite or
Postgres store.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configDir == "" {
				config.LoadDefaults()
				return nil
			}
			return config.Load(configDir)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configDir, "config", "c", "",
		"directory containing "+config.FileName+" (defaults only when empty)")

	root.AddCommand(
		newRunCmd(),
		newScoreCmd(),
		newVersionCmd(version, commit, date),
	)
	return root
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hologramd %s (commit: %s, built: %s)\n", version, commit, date)
			return err
		},
	}
}
