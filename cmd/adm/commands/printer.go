package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wilforlan/suncture-feedback-board/internal/models"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func statusColor(s models.Status) *color.Color {
	switch s {
	case models.StatusDone:
		return green
	case models.StatusNeedsRefix:
		return red
	case models.StatusInReview:
		return yellow
	default:
		return cyan
	}
}

func statusLabel(s models.Status) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func printRecords(out io.Writer, records []models.FeedbackRecord) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "SERIAL\tSEVERITY\tSTATUS\tREFIX\tREPORTER\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.SerialNumber, r.Severity, r.Status, r.RefixCount, r.Name, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printRecord(out io.Writer, r *models.FeedbackRecord) error {
	statusColor(r.Status).Fprintf(out, "%s  %s\n", r.SerialNumber, statusLabel(r.Status))
	tw := newTable(out)
	fmt.Fprintf(tw, "id\t%s\n", r.ID)
	fmt.Fprintf(tw, "severity\t%s\n", r.Severity)
	fmt.Fprintf(tw, "device\t%s\n", r.TestingDevice)
	fmt.Fprintf(tw, "refix count\t%d\n", r.RefixCount)
	fmt.Fprintf(tw, "reporter\t%s <%s>\n", r.Name, r.Email)
	if r.ParentSerialNumber != nil {
		fmt.Fprintf(tw, "follows\t%s\n", *r.ParentSerialNumber)
	}
	if r.ScreenshotURL != nil {
		fmt.Fprintf(tw, "screenshot\t%s\n", *r.ScreenshotURL)
	}
	fmt.Fprintf(tw, "created\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(tw, "defect\t%s\n", r.DefectDescription)
	fmt.Fprintf(tw, "precondition\t%s\n", r.Precondition)
	fmt.Fprintf(tw, "steps\t%s\n", r.StepsToRecreate)
	fmt.Fprintf(tw, "expected\t%s\n", r.ExpectedResult)
	fmt.Fprintf(tw, "actual\t%s\n", r.ActualResult)
	return tw.Flush()
}
