package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
)

func runConvert(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "output file (default: stdout)")
	compact := fs.Bool("compact", false, "print JSON on one line")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	g, err := loadGraph(ctx, cliLogger(stderr, *logLevel), fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	var data []byte
	if *compact {
		data, err = json.Marshal(g)
	} else {
		data, err = json.MarshalIndent(g, "", "  ")
	}
	if err != nil {
		return err
	}
	return writeOutput(*out, stdout, append(data, '\n'))
}
