package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const specTemplate = `---
name: my-project
timebox: 20m
constraints: []
acceptance:
  - "cmd: true"
stack_prefs: []
repo_mode: new
risk_policy: default
---

Describe what you want built. This body is free-form; the planner reads
it alongside the constraints and acceptance criteria above.
`

func newInitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a spec-file template to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = "spec.md"
			}
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}
			if err := os.WriteFile(out, []byte(specTemplate), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "spec.md", "path to write the template to")
	return cmd
}
