package commands

import (
	"fmt"

	"github.com/wilforlan/suncture-feedback-board/internal/leaderboard"

	"github.com/spf13/cobra"
)

// LeaderboardCommand returns the leaderboard command
func LeaderboardCommand(env *Env) *cobra.Command {
	var (
		window string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank reporters by submissions in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := leaderboard.ParseWindow(window)
			if err != nil {
				return err
			}

			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			aggregator, err := sc.GetLeaderboard()
			if err != nil {
				return err
			}

			entries := aggregator.TopContributors(cmd.Context(), limit, w)
			if env.JSON {
				return env.writeJSON(entries)
			}

			cyan.Fprintf(env.Out, "Top %d (%s)\n", limit, w)
			tw := newTable(env.Out)
			fmt.Fprintln(tw, "RANK\tNAME\tEMAIL\tCOUNT")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", e.Rank, e.Name, e.MaskedEmail, e.Count)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&window, "window", env.Cfg.Feedback.LeaderboardWindow, "daily, weekly or monthly")
	cmd.Flags().IntVar(&limit, "limit", env.Cfg.Feedback.LeaderboardLimit, "Number of entries to show")
	return cmd
}
