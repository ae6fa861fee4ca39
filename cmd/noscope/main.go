// Command noscope runs timeboxed, autonomous software builds from a
// markdown spec file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "noscope",
		Short: "Timeboxed autonomous build agent",
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newNewCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newRunsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "noscope:", err)
		os.Exit(1)
	}
}
