package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noscope-dev/noscope/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report doctor.Report
			if fresh {
				report = doctor.Run(context.Background())
			} else {
				report = doctor.Cached(context.Background())
			}

			failed := false
			for _, c := range report.Checks {
				symbol := "✓"
				switch c.Status {
				case doctor.StatusWarn:
					symbol = "!"
				case doctor.StatusFail:
					symbol = "✗"
					failed = true
				}
				fmt.Printf("%s %-20s %s\n", symbol, c.Name, c.Detail)
			}
			if failed {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the cached report and re-run every check")
	return cmd
}
