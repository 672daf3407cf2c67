package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/loykin/apismoke"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		limit     int
		suite     string
		withSteps bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded suite runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadConfig(v)
			if err != nil {
				return err
			}
			doc.applyOverrides(v)
			if err := doc.SetupLogging(v.GetBool("no_color")); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !doc.History.Enabled {
				_, _ = fmt.Fprintln(out, "run history is disabled (set history.enabled: true in the config)")
				return nil
			}

			ctx := cmd.Context()
			st, err := apismoke.OpenHistory(ctx, doc.History)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			runs, err := st.ListRuns(ctx, strings.ToLower(strings.TrimSpace(suite)), limit)
			if err != nil {
				return err
			}
			if withSteps {
				for i := range runs {
					if runs[i].Steps, err = st.Steps(ctx, runs[i].ID); err != nil {
						return err
					}
				}
			}
			printRuns(out, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "show up to N latest runs")
	cmd.Flags().StringVar(&suite, "suite", "", "only show runs of this suite")
	cmd.Flags().BoolVar(&withSteps, "steps", false, "list the steps of every run")
	return cmd
}

func printRuns(w io.Writer, runs []apismoke.HistoryRun) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "no recorded runs")
		return
	}
	_, _ = fmt.Fprintf(w, "%-6s %-20s %-8s %-7s %-10s %s\n", "ID", "STARTED", "SUITE", "STATUS", "DURATION", "FAILED STEP")
	for _, r := range runs {
		status := "passed"
		if !r.Passed {
			status = "failed"
		}
		failed := r.FailedStep
		if failed != "" && r.Kind != "" {
			failed += " (" + r.Kind + ")"
		}
		if r.Warnings > 0 {
			failed = strings.TrimSpace(failed + fmt.Sprintf(" [%d warning(s)]", r.Warnings))
		}
		_, _ = fmt.Fprintf(w, "%-6d %-20s %-8s %-7s %-10s %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Suite, status,
			r.Duration.Round(time.Millisecond), failed)
		for _, s := range r.Steps {
			line := fmt.Sprintf("       %d. %-28s %-8s %s", s.Position, s.Name, s.Outcome, s.Duration.Round(time.Millisecond))
			if s.Cleanup {
				line += " cleanup"
			}
			if s.Message != "" {
				line += "  " + s.Message
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
