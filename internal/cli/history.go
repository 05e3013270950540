package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	History string
	Limit   int
}

// RunSummary is the output shape of one recorded run.
type RunSummary struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	Target     string `json:"target,omitempty"`
	Binary     string `json:"binary"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	ExitStatus int    `json:"exit_status"`
	Digest     string `json:"digest"`
}

// ResultEntry is the output shape of one test result.
type ResultEntry struct {
	Suite     string `json:"suite"`
	Test      string `json:"test"`
	Verdict   string `json:"verdict"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Output    string `json:"output,omitempty"`
}

// RunDetail holds one recorded run with its per-test results.
type RunDetail struct {
	RunSummary
	Results []ResultEntry `json:"results"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show runs recorded by kiln run.

With no arguments, lists recent runs newest first. With a run ID,
shows that run's per-test results.

Examples:
  kiln history
  kiln history --limit 5
  kiln history 01911f2e-89ab-7cde-8123-456789abcdef
  kiln history --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.History, "history", "", "path to history database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()

	cfg, err := LoadConfig(ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	db, err := history.Open(cfg.HistoryPath(opts.History))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer db.Close()

	if len(args) == 1 {
		return showRun(ctx, opts, args[0], db, cmd)
	}
	return listRuns(ctx, opts, db, cmd)
}

func listRuns(ctx context.Context, opts *HistoryOptions, db *history.DB, cmd *cobra.Command) error {
	runs, err := db.ReadRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarizeRun(run))
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, summaries)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tTARGET\tBINARY\tRESULT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			run.Target,
			run.Binary,
			runVerdict(run))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, opts *HistoryOptions, id string, db *history.DB, cmd *cobra.Command) error {
	run, err := db.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("no run with ID %q", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	results, err := db.ReadResults(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}

	detail := RunDetail{
		RunSummary: summarizeRun(run),
		Results:    make([]ResultEntry, 0, len(results)),
	}
	for _, res := range results {
		detail.Results = append(detail.Results, ResultEntry{
			Suite:     res.Suite,
			Test:      res.Test,
			Verdict:   res.Verdict,
			ElapsedMS: res.ElapsedMS,
			Output:    res.Output,
		})
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, detail)
	}
	return outputRunDetailText(cmd, run, results, opts.Verbose)
}

func summarizeRun(run history.Run) RunSummary {
	return RunSummary{
		ID:         run.ID,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
		Target:     run.Target,
		Binary:     run.Binary,
		Passed:     run.Passed,
		Failed:     run.Failed,
		ExitStatus: run.ExitStatus,
		Digest:     run.Digest,
	}
}

// outputHistoryJSON outputs history data as JSON.
func outputHistoryJSON(cmd *cobra.Command, data interface{}) error {
	response := CLIResponse{
		Status: "ok",
		Data:   data,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputRunDetailText outputs one run's results as text.
func outputRunDetailText(cmd *cobra.Command, run history.Run, results []history.Result, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	if run.Target != "" {
		fmt.Fprintf(w, "Target: %s\n", run.Target)
	}
	fmt.Fprintf(w, "Binary: %s\n", run.Binary)
	fmt.Fprintf(w, "Result: %s\n", runVerdict(run))
	if verbose {
		fmt.Fprintf(w, "Digest: %s\n", run.Digest)
	}
	fmt.Fprintln(w)

	for _, res := range results {
		glyph := color.GreenString("✓")
		if res.Verdict == history.VerdictFail {
			glyph = color.RedString("✗")
		}
		fmt.Fprintf(w, "%s %s/%s (%dms)\n", glyph, res.Suite, res.Test, res.ElapsedMS)
		if res.Verdict == history.VerdictFail && res.Output != "" {
			fmt.Fprint(w, res.Output)
		}
	}
	return nil
}

// runVerdict renders a run's overall outcome with its counts.
func runVerdict(run history.Run) string {
	if run.Failed > 0 {
		return color.RedString("FAIL (%d/%d)", run.Failed, run.Passed+run.Failed)
	}
	return color.GreenString("PASS (%d)", run.Passed)
}
