package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rendis/n8nview/internal/summary"
)

func runSummary(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print cards as JSON")
	nodeID := fs.String("node", "", "only print the card of this node id")
	logLevel := fs.String("log-level", "warn", "log level: debug, info, warn, error")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	g, err := loadGraph(ctx, cliLogger(stderr, *logLevel), fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	type nodeCard struct {
		NodeID string `json:"node_id"`
		summary.Card
	}
	var cards []nodeCard
	for _, n := range g.Nodes {
		if *nodeID != "" && n.ID != *nodeID {
			continue
		}
		cards = append(cards, nodeCard{NodeID: n.ID, Card: summary.Render(n.Data)})
	}
	if *nodeID != "" && len(cards) == 0 {
		return fmt.Errorf("node %q not found", *nodeID)
	}

	if *asJSON {
		if cards == nil {
			cards = []nodeCard{}
		}
		data, err := json.MarshalIndent(cards, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	texts := make([]string, len(cards))
	for i, c := range cards {
		texts[i] = c.Text()
	}
	if len(texts) == 0 {
		return nil
	}
	_, err = fmt.Fprintln(stdout, strings.Join(texts, "\n\n"))
	return err
}
