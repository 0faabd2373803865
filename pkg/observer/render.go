package observer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// styles are bound to one writer so colors follow its terminal capabilities.
type styles struct {
	header  lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	warning lipgloss.Style
	box     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:  r.NewStyle().Foreground(lipgloss.Color("105")).Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2),
	}
}

// RenderSummary prints the outcome of a run in a bordered box.
func RenderSummary(w io.Writer, s core.Summary) error {
	st := newStyles(w)

	title := "Batch complete"
	if s.Interrupted {
		title = "Batch cancelled"
	}

	lines := []string{
		st.header.Render(title),
		"",
		fmt.Sprintf("%-14s %d", "Total", s.Total),
		st.ok.Render(fmt.Sprintf("%-14s %d", "Completed", s.Completed)),
	}
	failed := fmt.Sprintf("%-14s %d", "Failed", s.Failed)
	if s.Failed > 0 {
		failed = st.failed.Render(failed)
	}
	lines = append(lines, failed)
	if s.Cancelled > 0 || s.NotAttempted > 0 {
		lines = append(lines,
			st.warning.Render(fmt.Sprintf("%-14s %d", "Cancelled", s.Cancelled)),
			st.warning.Render(fmt.Sprintf("%-14s %d", "Not attempted", s.NotAttempted)),
		)
	}
	lines = append(lines, fmt.Sprintf("%-14s %s", "Duration", s.Duration.Round(time.Millisecond)))
	if s.BatchID != "" {
		lines = append(lines, fmt.Sprintf("%-14s %s", "Batch", s.BatchID))
	}

	_, err := fmt.Fprintln(w, st.box.Render(strings.Join(lines, "\n")))
	return err
}

// RenderRuns prints run history as a table, newest first as given.
func RenderRuns(w io.Writer, runs []*core.Run) error {
	st := newStyles(w)
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, st.warning.Render("No runs recorded."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, st.header.Render("RUN")+"\tBATCH\tSTARTED\tTOTAL\tOK\tFAILED\tCANCELLED\tSTATE")
	for _, r := range runs {
		state := "finished"
		switch {
		case r.FinishedAt == nil:
			state = "running"
		case r.Interrupted:
			state = "interrupted"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			shortID(r.ID), shortID(r.BatchID), r.StartedAt.Local().Format(time.DateTime),
			r.Total, r.Completed, r.Failed, r.Cancelled, state)
	}
	return tw.Flush()
}

// RenderJobs prints job records as a table.
func RenderJobs(w io.Writer, jobs []*core.Job) error {
	st := newStyles(w)
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, st.warning.Render("No jobs recorded."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, st.header.Render("JOB")+"\tKIND\tSTATUS\tRETRIES\tINPUTS\tERROR")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			shortID(j.ID), j.Kind, j.Status, j.RetryCount, j.MaxRetries, len(j.Inputs), truncate(j.LastError, 60))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
