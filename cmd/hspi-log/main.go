// Command hspi-log views and analyzes protocol capture files.
//
// Capture files are written by hspi-tool when run with -protocol-log.
//
// Usage:
//
//	hspi-log <command> [flags] <file.hlog>
//
// Commands:
//
//	view     View events in human-readable format
//	export   Export events to JSON lines or CSV
//	filter   Copy matching events to a new capture file
//	stats    Show statistics about the capture
//
// Examples:
//
//	# View wire-layer traffic for ref 12
//	hspi-log view -layer wire -ref 12 session.hlog
//
//	# Export the controller side as CSV
//	hspi-log export -format csv -role controller session.hlog
//
//	# Keep one connection
//	hspi-log filter -conn-id abc12345-... -o one.hlog session.hlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hspi-sdk/hspi-go/cmd/hspi-log/commands"
)

const usage = `hspi-log - HSPI Protocol Log Analyzer

Usage:
  hspi-log <command> [flags] <file.hlog>

Commands:
  view     View events in human-readable format
  export   Export events to JSON lines or CSV
  filter   Copy matching events to a new capture file
  stats    Show statistics about the capture

Use "hspi-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set for cmd with the shared filter flags bound
// to opts.
func newFlagSet(cmd, summary string, opts *commands.FilterOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "hspi-log %s - %s\n\nUsage:\n  hspi-log %s [flags] <file.hlog>\n\nFlags:\n", cmd, summary, cmd)
		fs.PrintDefaults()
	}
	if opts == nil {
		return fs
	}
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&opts.PluginID, "plugin", "", "Filter by plugin interface name")
	fs.IntVar(&opts.Ref, "ref", 0, "Filter by entity ref")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, entity)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&opts.Role, "role", "", "Filter by local role (plugin, controller)")
	return fs
}

// parseArgs parses args and returns the capture path, exiting on misuse.
func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("view", "View events in human-readable format", &opts)
	path := parseArgs(fs, args)

	if err := commands.RunView(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("export", "Export events to JSON lines or CSV", &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output, opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("filter", "Copy matching events to a new capture file", &opts)
	output := fs.String("o", "", "Output file (required)")
	path := parseArgs(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, *output, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the capture", nil)
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
