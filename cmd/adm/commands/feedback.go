package commands

import (
	"github.com/wilforlan/suncture-feedback-board/internal/models"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/spf13/cobra"
)

// FeedbackCommands returns the feedback record commands
func FeedbackCommands(env *Env) *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Feedback record commands",
		Long: `Feedback record commands.

Available commands:
  list      - List records, newest first
  show      - Show one record
  related   - List follow-up records of a serial number`,
	}

	feedbackCmd.AddCommand(feedbackListCmd(env))
	feedbackCmd.AddCommand(feedbackShowCmd(env))
	feedbackCmd.AddCommand(feedbackRelatedCmd(env))

	return feedbackCmd
}

func feedbackListCmd(env *Env) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *models.Status
			if status != "" {
				s, ok := models.ParseStatus(status)
				if !ok {
					return contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", status)
				}
				filter = &s
			}

			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := sc.GetFeedbackService()
			if err != nil {
				return err
			}
			records, err := svc.ListFeedback(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if env.JSON {
				return env.writeJSON(records)
			}
			return printRecords(env.Out, records)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list records in this status")
	return cmd
}

func feedbackShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := sc.GetFeedbackService()
			if err != nil {
				return err
			}
			record, err := svc.GetFeedback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if env.JSON {
				return env.writeJSON(record)
			}
			return printRecord(env.Out, record)
		},
	}
}

func feedbackRelatedCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "related <serial>",
		Short: "List records filed as follow-ups of a serial number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := env.Container(cmd.Context())
			if err != nil {
				return err
			}
			svc, err := sc.GetFeedbackService()
			if err != nil {
				return err
			}
			records, err := svc.RelatedFeedback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if env.JSON {
				return env.writeJSON(records)
			}
			return printRecords(env.Out, records)
		},
	}
}
