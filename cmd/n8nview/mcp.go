package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/rendis/n8nview/internal/config"
	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/validation"
	"github.com/rendis/n8nview/pkg/mcp"
)

func runMCP(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	settings := fs.String("config", "", "settings file (default: ~/.n8nview/settings.json)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(*settings)
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr only.
	logger := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)

	validator, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return fmt.Errorf("init validator: %w", err)
	}
	registry, err := expressions.NewRegistry()
	if err != nil {
		return fmt.Errorf("init expression engines: %w", err)
	}

	srv := mcp.NewViewServer(mcp.ViewServerDeps{
		Validator:   validator,
		Expressions: registry,
		Logger:      logger,
		BinDir:      cfg.BinDir,
		Version:     version,
	})
	logger.Info("n8nview MCP server on stdio")
	return srv.Serve(ctx)
}
