package main

import (
	"fmt"
	"strconv"

	"github.com/OCAP2/hologram/internal/config"
	"github.com/OCAP2/hologram/internal/scores"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var leader = color.New(color.FgYellow, color.Bold)

func newScoreCmd() *cobra.Command {
	var board string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Read or write leaderboard scores",
	}
	cmd.PersistentFlags().StringVarP(&board, "board", "b", "", "board name (defaults to leaderboard.board)")

	boardName := func() string {
		if board != "" {
			return board
		}
		return config.GetLeaderboardConfig().Board
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "submit <player> <value>",
		Short: "Record a score; a player keeps their best value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", args[1], err)
			}

			store, err := scores.Open(config.GetScoresConfig(), zerolog.Nop())
			if err != nil {
				return err
			}
			defer store.Close()

			return store.Submit(cmd.Context(), boardName(), args[0], value)
		},
	})

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "Print the best scores of a board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := scores.Open(config.GetScoresConfig(), zerolog.Nop())
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.Top(cmd.Context(), boardName(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, row := range rows {
				if i == 0 {
					leader.Fprintf(out, "%d. %s %g\n", i+1, row.Player, row.Value)
					continue
				}
				fmt.Fprintf(out, "%d. %s %g\n", i+1, row.Player, row.Value)
			}
			return nil
		},
	}
	top.Flags().IntVarP(&limit, "limit", "n", 10, "number of ranks to print")
	cmd.AddCommand(top)

	return cmd
}
