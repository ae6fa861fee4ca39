package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/config"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/llm/anthropicprovider"
	"github.com/noscope-dev/noscope/internal/llm/openaiprovider"
	"github.com/noscope-dev/noscope/internal/phase"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/store"
	"github.com/noscope-dev/noscope/internal/telemetry"
	"github.com/noscope-dev/noscope/internal/tokens"
)

func runIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dir := home + "/.noscope"
	_ = os.MkdirAll(dir, 0o755)
	return dir + "/runs.db"
}

func newRunCmd() *cobra.Command {
	var (
		specPath    string
		timeOverride string
		workDir     string
		sandbox     bool
		providerF   string
		modelF      string
		danger      bool
		yes         bool
		tui         bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a build from a spec file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(runOptions{
				specPath:  specPath,
				timeOverride: timeOverride,
				workDir:   workDir,
				sandbox:   sandbox,
				provider:  providerF,
				model:     modelF,
				danger:    danger,
				yes:       yes,
				tui:       tui,
			})
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "path to the spec file (required)")
	cmd.Flags().StringVar(&timeOverride, "time", "", "override the spec's timebox (e.g. 20m)")
	cmd.Flags().StringVar(&workDir, "dir", "", "output workspace directory")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "accepted but not applied: shell commands run on the host")
	cmd.Flags().StringVar(&providerF, "provider", "", "LLM provider: anthropic or openai")
	cmd.Flags().StringVar(&modelF, "model", "", "model name; not passed to the provider, which uses its own default model")
	cmd.Flags().BoolVar(&danger, "danger", false, "disable the shell command deny-list")
	cmd.Flags().BoolVar(&yes, "yes", false, "auto-approve all requested capabilities")
	cmd.Flags().BoolVar(&tui, "tui", false, "render a live terminal progress view")
	cmd.MarkFlagRequired("spec")

	return cmd
}

type runOptions struct {
	specPath     string
	timeOverride string
	workDir      string
	sandbox      bool
	provider     string
	model        string
	danger       bool
	yes          bool
	tui          bool
}

func runBuild(opts runOptions) error {
	spec, err := specfile.Parse(opts.specPath)
	if err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}
	if opts.timeOverride != "" {
		seconds, err := specfile.ParseDuration(opts.timeOverride)
		if err != nil {
			return fmt.Errorf("parse --time: %w", err)
		}
		spec.TimeboxSeconds = seconds
	}

	settings, err := config.Load()
	if err != nil {
		return err
	}
	if opts.provider != "" {
		settings.DefaultProvider = config.Provider(opts.provider)
	}
	if opts.model != "" {
		settings.DefaultModel = opts.model
	}
	if opts.danger {
		settings.DangerMode = true
	}

	provider, err := resolveProvider(settings)
	if err != nil {
		return err
	}

	workDir := opts.workDir
	if workDir == "" {
		workDir = "."
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	runDir, err := eventlog.NewRunDir("", "")
	if err != nil {
		return err
	}
	log, err := eventlog.NewLog(runDir)
	if err != nil {
		return err
	}
	defer log.Close()

	runIndex, err := store.Open(runIndexPath())
	if err != nil {
		return err
	}
	defer runIndex.Close()
	if err := runIndex.RecordStart(context.Background(), runDir.RunID, spec.Name, spec.TimeboxSeconds); err != nil {
		return fmt.Errorf("record run start: %w", err)
	}

	d := deadline.New(spec.TimeboxSeconds, nil)
	tracker := tokens.New()

	var observer agent.Observer
	if opts.tui {
		observer = telemetry.NewConsoleObserver(os.Stdout)
	}

	secrets := map[string]string{}
	if settings.AnthropicAPIKey != "" {
		secrets["ANTHROPIC_API_KEY"] = settings.AnthropicAPIKey
	}
	if settings.OpenAIAPIKey != "" {
		secrets["OPENAI_API_KEY"] = settings.OpenAIAPIKey
	}

	runner := &phase.Runner{
		Spec:        spec,
		Provider:    provider,
		RunDir:      runDir,
		Log:         log,
		Deadline:    d,
		Observer:    observer,
		Tokens:      tracker,
		AutoApprove: opts.yes,
		DangerMode:  settings.DangerMode,
		Workspace:   workDir,
		Secrets:     secrets,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
	}

	outcome := runner.Run(context.Background())
	_ = runIndex.RecordFinish(context.Background(), runDir.RunID, "handoff")

	input, output := tracker.Totals()
	fmt.Printf("\nrun %s complete (%d input / %d output tokens)\n", runDir.RunID, input, output)
	fmt.Printf("handoff report: %s\n", runDir.HandoffPath())
	_ = outcome
	return nil
}

func resolveProvider(settings *config.Settings) (llm.Provider, error) {
	var base llm.Provider
	switch settings.DefaultProvider {
	case config.ProviderOpenAI:
		if settings.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but no API key configured")
		}
		base = openaiprovider.New(settings.OpenAIAPIKey)
	default:
		if settings.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider selected but no API key configured")
		}
		base = anthropicprovider.New(settings.AnthropicAPIKey)
	}
	return llm.NewRateLimited(base, 4, 8), nil
}
