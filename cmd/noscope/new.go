package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newNewCmd() *cobra.Command {
	var (
		workDir   string
		providerF string
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Interactively author a spec, then run it",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Print("project name: ")
			name := readLine(reader)
			fmt.Print("timebox (e.g. 20m): ")
			timebox := readLine(reader)
			if timebox == "" {
				timebox = "20m"
			}
			fmt.Println("describe what to build (end with a blank line):")
			description := readMultiline(reader)

			dir := workDir
			if dir == "" {
				var err error
				dir, err = os.MkdirTemp("", "noscope-spec-*")
				if err != nil {
					return err
				}
			}
			specPath := filepath.Join(dir, "spec.md")
			content := fmt.Sprintf("---\nname: %s\ntimebox: %s\nacceptance:\n  - \"cmd: true\"\n---\n\n%s\n", name, timebox, description)
			if err := os.WriteFile(specPath, []byte(content), 0o644); err != nil {
				return err
			}

			return runBuild(runOptions{specPath: specPath, workDir: dir, provider: providerF, yes: yes})
		},
	}

	cmd.Flags().StringVar(&workDir, "dir", "", "output workspace directory")
	cmd.Flags().StringVar(&providerF, "provider", "", "LLM provider: anthropic or openai")
	cmd.Flags().BoolVar(&yes, "yes", false, "auto-approve all requested capabilities")
	return cmd
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readMultiline(reader *bufio.Reader) string {
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\n")
		if trimmed == "" {
			break
		}
		b.WriteString(trimmed)
		b.WriteString("\n")
		if err != nil {
			break
		}
	}
	return b.String()
}
