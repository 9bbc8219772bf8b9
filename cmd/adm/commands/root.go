package commands

import (
	"fmt"

	"github.com/wilforlan/suncture-feedback-board/internal/config"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the adm command tree around env
func NewRootCommand(env *Env) *cobra.Command {
	var sqlitePath string

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Feedback Board Administration Tool",
		Long: `Feedback Board Administration Tool

Inspect and operate the QA feedback store: apply the schema, preview serial
numbers, view and move board records, and print the contributor leaderboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("sqlite") {
				env.Cfg.Store.Driver = config.StoreDriverSQLite
				env.Cfg.Store.SQLitePath = sqlitePath
			}
			if cmd.Name() == "health" {
				return nil
			}
			return env.Cfg.Validate()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "Use a SQLite store at this path instead of the configured store")
	rootCmd.PersistentFlags().BoolVar(&env.JSON, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(MigrateCommand(env))
	rootCmd.AddCommand(SerialCommands(env))
	rootCmd.AddCommand(FeedbackCommands(env))
	rootCmd.AddCommand(BoardCommands(env))
	rootCmd.AddCommand(LeaderboardCommand(env))
	rootCmd.AddCommand(HealthCommand(env))

	return rootCmd
}
