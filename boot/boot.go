// Package boot is the standard entry point for kiln test binaries: flag
// parsing, reporter selection, and process exit status.
package boot

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/roach88/kiln"
	"github.com/roach88/kiln/report"
)

// Main runs every registered test and exits with the run's status. Test
// binaries call it from their own main:
//
//	func main() { boot.Main() }
//
// Flags:
//
//	-kiln.reporter=console|json|quiet   pick the reporter (default console)
//	-kiln.list                          print suite/name lines and exit
//	-kiln.verbose                       console reporter prints passing checks
//	-kiln.nocolor                       disable colored console output
//
// Setting KILN_EVENTS=json in the environment forces the json reporter
// regardless of flags, which is how the kiln CLI captures the stream.
func Main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("kiln", flag.ContinueOnError)
	reporter := fs.String("kiln.reporter", "console", "reporter: console, json, or quiet")
	list := fs.Bool("kiln.list", false, "list registered tests and exit")
	verbose := fs.Bool("kiln.verbose", false, "print passing expectations")
	nocolor := fs.Bool("kiln.nocolor", false, "disable colored output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *nocolor {
		color.NoColor = true
	}

	if *list {
		for d := range kiln.Tests() {
			fmt.Fprintln(out, d.FullName())
		}
		return 0
	}

	name := *reporter
	if os.Getenv("KILN_EVENTS") == "json" {
		name = "json"
	}
	handler, err := handlerFor(name, out, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	kiln.RegisterEventHandler(handler)

	return kiln.RunAllTests()
}

// handlerFor maps a reporter name to its event handler. quiet binds no
// handler at all; the exit status is the only signal.
func handlerFor(name string, out io.Writer, verbose bool) (kiln.EventHandler, error) {
	switch name {
	case "console":
		return report.NewConsole(out, report.WithVerbose(verbose)), nil
	case "json":
		return report.NewStream(out), nil
	case "quiet":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown reporter %q: want console, json, or quiet", name)
	}
}
