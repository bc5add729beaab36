package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/rendis/n8nview/internal/config"
	"github.com/rendis/n8nview/internal/diagram"
	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/pkg/schema"
)

func runRender(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	formatName := fs.String("format", "mermaid", "output format: mermaid, ascii, dot, svg, png")
	out := fs.String("o", "", "output file (default: stdout)")
	engineName := fs.String("engine", "expr", "selection language: expr, cel, jq")
	expression := fs.String("select", "", "highlight nodes matching this predicate")
	binDir := fs.String("bin-dir", "", "directory holding mermaid-ascii (default: settings bin_dir)")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	format, err := schema.ParseDiagramFormat(*formatName)
	if err != nil {
		return err
	}
	if format.Binary() && *out == "" {
		return fmt.Errorf("%s output is binary: pass -o <file>", format)
	}

	dir := *binDir
	if dir == "" {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		dir = cfg.BinDir
	}

	g, err := loadGraph(ctx, cliLogger(stderr, *logLevel), fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	if *expression != "" {
		registry, err := expressions.NewRegistry()
		if err != nil {
			return err
		}
		engine, err := registry.Get(*engineName)
		if err != nil {
			return err
		}
		ids, err := expressions.Select(ctx, engine, *expression, g)
		if err != nil {
			return err
		}
		g.Select(ids)
	}

	data, err := diagram.Render(ctx, g, format, dir)
	if err != nil {
		return err
	}
	if !format.Binary() && (len(data) == 0 || data[len(data)-1] != '\n') {
		data = append(data, '\n')
	}
	return writeOutput(*out, stdout, data)
}
