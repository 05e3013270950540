package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/kiln/internal/digest"
	"github.com/roach88/kiln/internal/history"
	"github.com/roach88/kiln/internal/manifest"
	"github.com/roach88/kiln/internal/ui"
	"github.com/roach88/kiln/stream"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Manifest  string
	Bins      []string
	History   string
	NoHistory bool
	Timeout   time.Duration

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDGenerator.
	IDGenerator history.IDGenerator
}

// TargetResult holds the outcome of one target binary.
type TargetResult struct {
	Target  string  `json:"target"`
	Binary  string  `json:"binary"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Elapsed float64 `json:"elapsed"`
	RunID   string  `json:"run_id,omitempty"`
	Digest  string  `json:"digest"`
}

// RunResult holds the overall run outcome.
type RunResult struct {
	Targets []TargetResult `json:"targets"`
	Passed  int            `json:"passed"`
	Failed  int            `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [target...]",
		Short: "Run test binaries and record their outcomes",
		Long: `Run kiln test binaries and collect their event streams.

Targets come from the CUE manifest (kiln.cue by default); naming none
runs all of them. --bin runs an ad hoc binary without a manifest. Each
binary is launched with KILN_EVENTS=json so its event stream lands on
stdout regardless of the binary's default reporter. Failures are echoed
as targets complete, and every run is recorded in the history database
unless --no-history is set.

Exit codes:
  0 - All tests passed
  1 - One or more tests failed
  2 - Command error (bad manifest, unknown target, binary died, etc.)

Examples:
  kiln run
  kiln run host
  kiln run --bin ./build/host/ringbuf_test
  kiln run --manifest ci/kiln.cue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "path to CUE target manifest (default kiln.cue)")
	cmd.Flags().StringArrayVar(&opts.Bins, "bin", nil, "run a binary directly, bypassing the manifest (repeatable)")
	cmd.Flags().StringVar(&opts.History, "history", "", "path to history database")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record this run")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-target timeout (0 = none)")

	return cmd
}

func runRun(opts *RunOptions, args []string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := LoadConfig(ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	targets, err := resolveTargets(opts, cfg, args)
	if err != nil {
		return err
	}

	var recorder *history.DB
	if !opts.NoHistory {
		path := cfg.HistoryPath(opts.History)
		recorder, err = history.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil {
				slog.Error("error closing history database", "error", closeErr)
			}
		}()
		slog.Debug("history database ready", "path", path)
	}

	// Setup signal handling so Ctrl-C kills the child binaries too.
	// Use command's context if available (for testing), otherwise create one.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	gen := opts.IDGenerator
	if gen == nil {
		gen = history.UUIDGenerator{}
	}
	result := RunResult{Targets: make([]TargetResult, 0, len(targets))}

	for _, target := range targets {
		tr, err := runTarget(ctx, opts, target, cmd)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("target %s", target.Name), err)
		}
		printFailures(cmd.OutOrStdout(), tr.report, opts.Format)

		entry := TargetResult{
			Target:  target.Name,
			Binary:  target.Binary,
			Passed:  tr.report.Passed,
			Failed:  tr.report.Failed,
			Elapsed: tr.elapsed.Seconds(),
			Digest:  digest.Of(tr.events),
		}
		if recorder != nil {
			entry.RunID = gen.NewRunID()
			if err := recordTarget(ctx, recorder, entry, tr); err != nil {
				return WrapExitError(ExitCommandError, "failed to record run", err)
			}
			slog.Debug("run recorded", "run_id", entry.RunID, "target", entry.Target)
		}

		result.Targets = append(result.Targets, entry)
		result.Passed += entry.Passed
		result.Failed += entry.Failed
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, result)
	}
	return outputRunText(cmd, result)
}

// resolveTargets picks which binaries to run: explicit --bin paths, or
// manifest targets filtered by the positional args.
func resolveTargets(opts *RunOptions, cfg *Config, args []string) ([]manifest.Target, error) {
	if len(opts.Bins) > 0 {
		if len(args) > 0 {
			return nil, NewExitError(ExitCommandError, "--bin and named targets are mutually exclusive")
		}
		targets := make([]manifest.Target, len(opts.Bins))
		for i, bin := range opts.Bins {
			targets[i] = manifest.Target{Name: filepath.Base(bin), Binary: bin}
		}
		return targets, nil
	}

	path := cfg.ManifestPath(opts.Manifest)
	slog.Debug("loading manifest", "path", path)
	m, err := manifest.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load manifest", err)
	}
	if len(args) == 0 {
		return m.Targets, nil
	}

	targets := make([]manifest.Target, 0, len(args))
	for _, name := range args {
		target, ok := m.Target(name)
		if !ok {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("unknown target %q: manifest defines %v", name, m.Names()))
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// targetRun carries everything observed while one binary ran.
type targetRun struct {
	events  []stream.Event
	report  stream.Report
	started time.Time
	elapsed time.Duration
}

func runTarget(ctx context.Context, opts *RunOptions, target manifest.Target, cmd *cobra.Command) (*targetRun, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	total := countTests(ctx, target)
	slog.Debug("running target", "target", target.Name, "binary", target.Binary, "tests", total)

	bin := exec.CommandContext(ctx, target.Binary, target.Args...)
	bin.Env = append(os.Environ(), "KILN_EVENTS=json")
	for k, v := range target.Env {
		bin.Env = append(bin.Env, k+"="+v)
	}
	stdout, err := bin.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe stdout: %w", err)
	}
	bin.Stderr = cmd.ErrOrStderr()

	started := time.Now()
	if err := bin.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", target.Binary, err)
	}

	// The scanner goroutine feeds parsed events to the progress loop; the
	// intake clock counts records accepted on the producer side.
	clock := stream.NewClock()
	events := make(chan stream.Event, 64)
	scanErr := make(chan error, 1)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			ev, ok := stream.ParseLine(scanner.Bytes())
			if !ok {
				continue
			}
			clock.Next()
			events <- ev
		}
		scanErr <- scanner.Err()
	}()

	bar := ui.NewRunBar(total)
	var collected []stream.Event
	passed, failed := 0, 0
	for ev := range events {
		collected = append(collected, ev)
		if ev.Test == "" {
			continue
		}
		switch ev.Action {
		case stream.ActionPass:
			passed++
			bar.Update(passed, failed)
		case stream.ActionFail:
			failed++
			bar.Update(passed, failed)
		}
	}
	bar.Finish()
	slog.Debug("stream drained", "target", target.Name, "events", clock.Current())

	if err := <-scanErr; err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	waitErr := bin.Wait()
	if len(collected) == 0 {
		if waitErr != nil {
			return nil, fmt.Errorf("no kiln events on stdout: %w", waitErr)
		}
		return nil, errors.New("no kiln events on stdout (does the binary call boot.Main?)")
	}
	if err := abnormalExit(waitErr, failed); err != nil {
		return nil, err
	}

	return &targetRun{
		events:  collected,
		report:  stream.Summarize(collected),
		started: started,
		elapsed: time.Since(started),
	}, nil
}

// abnormalExit filters expected exit statuses: 0 always, and 1 when the
// stream itself reported failures.
func abnormalExit(waitErr error, failed int) error {
	if waitErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 && failed > 0 {
		return nil
	}
	return fmt.Errorf("binary exited abnormally: %w", waitErr)
}

// countTests asks the binary for its registry so the bar has a total.
// Binaries that cannot list get an indeterminate spinner instead.
func countTests(ctx context.Context, target manifest.Target) int {
	out, err := exec.CommandContext(ctx, target.Binary, "-kiln.list").Output()
	if err != nil {
		slog.Debug("list failed, falling back to spinner", "binary", target.Binary, "error", err)
		return -1
	}
	count := 0
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			count++
		}
	}
	return count
}

// printFailures echoes failed tests with their recorded output.
func printFailures(w io.Writer, rep stream.Report, format string) {
	if format == "json" {
		return
	}
	for _, test := range rep.Tests {
		if !test.Failed {
			continue
		}
		fmt.Fprintf(w, "%s %s/%s (%.2fs)\n", color.RedString("FAIL"), test.Suite, test.Name, test.Elapsed)
		for _, line := range test.Output {
			fmt.Fprint(w, line)
		}
	}
}

func recordTarget(ctx context.Context, db *history.DB, entry TargetResult, tr *targetRun) error {
	results := make([]history.Result, 0, len(tr.report.Tests))
	for _, test := range tr.report.Tests {
		verdict := history.VerdictPass
		if test.Failed {
			verdict = history.VerdictFail
		}
		results = append(results, history.Result{
			Suite:     test.Suite,
			Test:      test.Name,
			Verdict:   verdict,
			ElapsedMS: int64(test.Elapsed * 1000),
			Output:    strings.Join(test.Output, ""),
		})
	}

	run := history.Run{
		ID:         entry.RunID,
		StartedAt:  tr.started,
		Binary:     entry.Binary,
		Target:     entry.Target,
		Passed:     entry.Passed,
		Failed:     entry.Failed,
		ExitStatus: tr.report.ExitStatus(),
		Digest:     entry.Digest,
	}
	return db.RecordRun(ctx, run, results)
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_RUN_FAILED",
			Message: fmt.Sprintf("%d test(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", result.Failed))
	}
	return nil
}

// outputRunText outputs the run result as text.
func outputRunText(cmd *cobra.Command, result RunResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	for _, target := range result.Targets {
		status := color.GreenString("✓")
		if target.Failed > 0 {
			status = color.RedString("✗")
		}
		fmt.Fprintf(w, "%s %s: %d passed, %d failed (%.2fs)\n",
			status, target.Target, target.Passed, target.Failed, target.Elapsed)
	}
	fmt.Fprintln(w)

	if result.Failed > 0 {
		fmt.Fprintf(w, "%s: %d passed, %d failed\n", color.RedString("FAIL"), result.Passed, result.Failed)
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", result.Failed))
	}
	fmt.Fprintf(w, "%s: %d passed, %d failed\n", color.GreenString("PASS"), result.Passed, result.Failed)
	return nil
}
