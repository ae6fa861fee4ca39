package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscope-dev/noscope/internal/store"
)

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the local run index",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(runIndexPath())
			if err != nil {
				return err
			}
			defer s.Close()

			records, err := s.Recent(context.Background(), limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				finished := "running"
				if r.FinishedAt != nil {
					finished = r.FinishedAt.Format("2006-01-02 15:04")
				}
				fmt.Printf("%-24s %-20s %-10s started %s  finished %s\n", r.RunID, r.SpecName, r.Outcome, r.StartedAt.Format("2006-01-02 15:04"), finished)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}
