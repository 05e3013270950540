package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/kiln/stream"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
}

// RenderSuite is the output shape of one suite.
type RenderSuite struct {
	Name    string  `json:"name"`
	Passed  int     `json:"passed"`
	Failed  int     `json:"failed"`
	Elapsed float64 `json:"elapsed"`
}

// RenderTest is the output shape of one test.
type RenderTest struct {
	Suite   string   `json:"suite"`
	Name    string   `json:"name"`
	Failed  bool     `json:"failed"`
	Elapsed float64  `json:"elapsed"`
	Output  []string `json:"output,omitempty"`
}

// RenderResult holds the reconstructed report.
type RenderResult struct {
	Suites []RenderSuite `json:"suites"`
	Tests  []RenderTest  `json:"tests"`
	Passed int           `json:"passed"`
	Failed int           `json:"failed"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render [events-file]",
		Short: "Render a captured event stream",
		Long: `Render a captured kiln event stream into a readable summary.

Reads the JSON event stream a test binary wrote (KILN_EVENTS=json or
-kiln.reporter=json) from a file or stdin and reconstructs per-suite
and per-test results. Lines that are not kiln events are ignored, so
raw console captures with interleaved output render fine.

Exit codes:
  0 - Stream rendered, all tests passed
  1 - Stream rendered, one or more tests failed
  2 - Command error (unreadable input, no kiln events found)

Examples:
  ./ringbuf_test -kiln.reporter=json | kiln render
  kiln render ci-capture.log
  kiln render ci-capture.log --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args, cmd)
		},
	}

	return cmd
}

func runRender(opts *RenderOptions, args []string, cmd *cobra.Command) error {
	var src io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open events file", err)
		}
		defer f.Close()
		src = f
		name = args[0]
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	if !stream.Sniff(data) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("no kiln events in %s (was the binary run with KILN_EVENTS=json?)", name))
	}

	events, err := stream.Parse(bytes.NewReader(data))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse events", err)
	}
	report := stream.Summarize(events)

	if opts.Format == "json" {
		return outputRenderJSON(cmd, report)
	}
	return outputRenderText(cmd.OutOrStdout(), report, opts.Verbose)
}

func renderResult(report stream.Report) RenderResult {
	result := RenderResult{
		Suites: make([]RenderSuite, 0, len(report.Suites)),
		Tests:  make([]RenderTest, 0, len(report.Tests)),
		Passed: report.Passed,
		Failed: report.Failed,
	}
	for _, suite := range report.Suites {
		result.Suites = append(result.Suites, RenderSuite{
			Name:    suite.Name,
			Passed:  suite.Passed,
			Failed:  suite.Failed,
			Elapsed: suite.Elapsed,
		})
	}
	for _, test := range report.Tests {
		result.Tests = append(result.Tests, RenderTest{
			Suite:   test.Suite,
			Name:    test.Name,
			Failed:  test.Failed,
			Elapsed: test.Elapsed,
			Output:  test.Output,
		})
	}
	return result
}

// outputRenderJSON outputs the reconstructed report as JSON.
func outputRenderJSON(cmd *cobra.Command, report stream.Report) error {
	response := CLIResponse{
		Status: "ok",
		Data:   renderResult(report),
	}
	if report.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_RUN_FAILED",
			Message: fmt.Sprintf("%d test(s) failed", report.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", report.Failed))
	}
	return nil
}

// outputRenderText outputs the reconstructed report as text.
func outputRenderText(w io.Writer, report stream.Report, verbose bool) error {
	for _, suite := range report.Suites {
		fmt.Fprintf(w, "%s: %d passed, %d failed (%.2fs)\n",
			suite.Name, suite.Passed, suite.Failed, suite.Elapsed)
	}
	fmt.Fprintln(w)

	printed := false
	for _, test := range report.Tests {
		switch {
		case test.Failed:
			fmt.Fprintf(w, "%s %s/%s (%.2fs)\n", color.RedString("FAIL"), test.Suite, test.Name, test.Elapsed)
			for _, line := range test.Output {
				fmt.Fprint(w, line)
			}
			printed = true
		case verbose:
			fmt.Fprintf(w, "%s %s/%s (%.2fs)\n", color.GreenString("PASS"), test.Suite, test.Name, test.Elapsed)
			printed = true
		}
	}
	if printed {
		fmt.Fprintln(w)
	}

	if report.Failed > 0 {
		fmt.Fprintf(w, "%s: %d passed, %d failed\n", color.RedString("FAIL"), report.Passed, report.Failed)
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", report.Failed))
	}
	fmt.Fprintf(w, "%s: %d passed, %d failed\n", color.GreenString("PASS"), report.Passed, report.Failed)
	return nil
}
