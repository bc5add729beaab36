package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rendis/n8nview/internal/flow"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/validation"
)

// readWorkflow reads the file named by path, or stdin for "" and "-".
func readWorkflow(path string, stdin io.Reader) (string, []byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), data, nil
}

// loadGraph validates and converts one workflow file.
func loadGraph(ctx context.Context, logger *slog.Logger, path string, stdin io.Reader) (*flow.Graph, error) {
	name, data, err := readWorkflow(path, stdin)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithFile(ctx, name)

	validator, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	doc, err := validator.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return flow.NewConverter(logger).Convert(ctx, doc), nil
}

// cliLogger writes warnings and errors to stderr, where they do not mix with
// command output.
func cliLogger(stderr io.Writer, level string) *slog.Logger {
	return logging.New(stderr, level, "text")
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
