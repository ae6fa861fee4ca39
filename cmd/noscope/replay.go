package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/noscope-dev/noscope/internal/eventlog"
)

// newReplayCmd implements a minimal reader over a run's events.jsonl. The
// spec reserves this command for future interactive replay (re-driving a
// run's tool calls); today it prints the recorded event stream.
func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <run-dir>",
		Short: "Print the recorded event stream for a past run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(args[0], "events.jsonl")
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open event log: %w", err)
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				var event eventlog.Event
				if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
					continue
				}
				fmt.Printf("[%s] %-8s %-24s %s\n", event.Timestamp, event.Phase, event.Type, event.Summary)
			}
			return scanner.Err()
		},
	}
	return cmd
}
