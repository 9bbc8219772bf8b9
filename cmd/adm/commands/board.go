package commands

import (
	"fmt"

	"github.com/wilforlan/suncture-feedback-board/internal/board"
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/spf13/cobra"
)

// BoardCommands returns the board commands
func BoardCommands(env *Env) *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Board commands",
		Long: `Board commands.

Available commands:
  show      - Print every column
  move      - Move a record between columns`,
	}

	boardCmd.AddCommand(boardShowCmd(env))
	boardCmd.AddCommand(boardMoveCmd(env))

	return boardCmd
}

func boardShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			b, err := sc.GetBoard()
			if err != nil {
				return err
			}
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			state := b.Snapshot()
			if env.JSON {
				return env.writeJSON(state)
			}
			return printBoard(env, state)
		},
	}
}

func printBoard(env *Env, state board.State) error {
	for _, status := range models.AllStatuses {
		col := state.Columns[status]
		statusColor(status).Fprintf(env.Out, "%s (%d)\n", statusLabel(status), len(col))
		if len(col) == 0 {
			continue
		}
		if err := printRecords(env.Out, col); err != nil {
			return err
		}
		fmt.Fprintln(env.Out)
	}
	return nil
}

func boardMoveCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <from> <to>",
		Short: "Move a record between columns",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, ok := models.ParseStatus(args[1])
			if !ok {
				return contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", args[1])
			}
			to, ok := models.ParseStatus(args[2])
			if !ok {
				return contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", args[2])
			}

			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			b, err := sc.GetBoard()
			if err != nil {
				return err
			}
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}

			outcome, err := b.MoveRecord(cmd.Context(), args[0], from, to)
			if env.JSON {
				if jsonErr := env.writeJSON(map[string]interface{}{"outcome": outcome, "board": b.Snapshot()}); jsonErr != nil {
					return jsonErr
				}
				return err
			}

			switch outcome {
			case board.OutcomeApplied:
				green.Fprintf(env.Out, "%s moved to %s\n", args[0], statusLabel(to))
			case board.OutcomeRolledBack:
				red.Fprintf(env.Out, "%s stays in %s\n", args[0], statusLabel(from))
			default:
				yellow.Fprintf(env.Out, "nothing to do for %s in %s\n", args[0], statusLabel(from))
			}
			return err
		},
	}
}
