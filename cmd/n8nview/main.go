// Command n8nview renders exported n8n workflows: as a browser canvas
// (serve), as JSON (convert), as diagrams (render), as node cards (summary)
// or as MCP tools (mcp).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args, stderr)
	case "convert":
		err = runConvert(ctx, args, stdin, stdout, stderr)
	case "render":
		err = runRender(ctx, args, stdin, stdout, stderr)
	case "summary":
		err = runSummary(ctx, args, stdin, stdout, stderr)
	case "mcp":
		err = runMCP(ctx, args, stderr)
	case "install":
		err = runInstall(ctx, args, stdout, stderr)
	case "version", "-version", "--version":
		printVersion(stdout)
	case "help", "-h", "-help", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// errUsage marks flag errors the FlagSet has already reported.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: n8nview <command> [flags]

Commands:
  serve     start the web viewer (default)
  convert   print the display graph of a workflow file as JSON
  render    draw a workflow as mermaid, ascii, dot, svg or png
  summary   print the summary card of every node
  mcp       serve the viewer tools over MCP stdio
  install   write settings and download mermaid-ascii
  version   print the version

Workflow files are read from the path argument, or stdin when it is "-" or missing.
`)
}

// parseFlags parses args, mapping flag errors to errUsage.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}
