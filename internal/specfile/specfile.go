// Package specfile parses the markdown-plus-YAML-frontmatter spec file
// that kicks off a run.
package specfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AcceptanceCheck is a single acceptance criterion. A check whose raw text
// begins with "cmd:" is executed as a shell command during the HARDEN
// phase; any other check is informational and verified by the LLM during
// VERIFY.
type AcceptanceCheck struct {
	Raw     string `json:"raw" yaml:"raw"`
	IsCmd   bool   `json:"is_cmd" yaml:"is_cmd"`
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// NewAcceptanceCheck classifies a raw acceptance line.
func NewAcceptanceCheck(raw string) AcceptanceCheck {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(trimmed), "cmd:") {
		return AcceptanceCheck{Raw: trimmed, IsCmd: true, Command: strings.TrimSpace(trimmed[4:])}
	}
	return AcceptanceCheck{Raw: trimmed}
}

// RepoMode selects whether the run targets a fresh workspace or an
// existing repository.
type RepoMode string

// The two supported repo modes.
const (
	RepoModeNew      RepoMode = "new"
	RepoModeExisting RepoMode = "existing"
)

// RiskPolicy tunes how aggressively the policy engine restricts tool use.
type RiskPolicy string

// The three supported risk policies.
const (
	RiskStrict     RiskPolicy = "strict"
	RiskDefault    RiskPolicy = "default"
	RiskPermissive RiskPolicy = "permissive"
)

// Spec is the parsed and validated contents of a spec file.
type Spec struct {
	Name           string
	Timebox        string
	TimeboxSeconds int
	Constraints    []string
	Acceptance     []AcceptanceCheck
	Body           string
	StackPrefs     []string
	RepoMode       RepoMode
	RiskPolicy     RiskPolicy
}

type frontmatter struct {
	Name        string   `yaml:"name"`
	Timebox     string   `yaml:"timebox"`
	Constraints []string `yaml:"constraints"`
	Acceptance  []string `yaml:"acceptance"`
	StackPrefs  []string `yaml:"stack_prefs"`
	RepoMode    string   `yaml:"repo_mode"`
	RiskPolicy  string   `yaml:"risk_policy"`
}

// Parse reads and validates the spec file at path.
func Parse(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("spec file not found: %w", err)
	}
	meta, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, fmt.Errorf("parse spec frontmatter: %w", err)
	}

	if fm.Name == "" {
		return nil, fmt.Errorf("spec must include 'name' in frontmatter")
	}
	if fm.Timebox == "" {
		return nil, fmt.Errorf("spec must include 'timebox' in frontmatter")
	}

	seconds, err := ParseDuration(fm.Timebox)
	if err != nil {
		return nil, err
	}

	acceptance := make([]AcceptanceCheck, 0, len(fm.Acceptance))
	for _, a := range fm.Acceptance {
		acceptance = append(acceptance, NewAcceptanceCheck(a))
	}

	repoMode := RepoMode(fm.RepoMode)
	if repoMode == "" {
		repoMode = RepoModeNew
	}
	riskPolicy := RiskPolicy(fm.RiskPolicy)
	if riskPolicy == "" {
		riskPolicy = RiskDefault
	}

	return &Spec{
		Name:           fm.Name,
		Timebox:        fm.Timebox,
		TimeboxSeconds: seconds,
		Constraints:    fm.Constraints,
		Acceptance:     acceptance,
		Body:           body,
		StackPrefs:     fm.StackPrefs,
		RepoMode:       repoMode,
		RiskPolicy:     riskPolicy,
	}, nil
}

// splitFrontmatter separates a "---\n...\n---\n" YAML block from the
// markdown body that follows it.
func splitFrontmatter(text string) (meta, body string, err error) {
	text = strings.TrimPrefix(text, "﻿")
	if !strings.HasPrefix(text, "---") {
		return "", "", fmt.Errorf("spec file must begin with a '---' YAML frontmatter block")
	}
	rest := text[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("spec file frontmatter block is not terminated with '---'")
	}
	meta = rest[:idx]
	after := rest[idx+4:]
	after = strings.TrimPrefix(after, "\n")
	return meta, after, nil
}

// ParseDuration parses a duration string like "30m", "1h", "1h30m", "90s",
// or a bare number (minutes) into seconds.
func ParseDuration(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	total := 0
	current := strings.Builder{}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			current.WriteRune(c)
		case c == 'h', c == 'm', c == 's':
			if current.Len() == 0 {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			n, err := strconv.Atoi(current.String())
			if err != nil {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			switch c {
			case 'h':
				total += n * 3600
			case 'm':
				total += n * 60
			case 's':
				total += n
			}
			current.Reset()
		default:
			return 0, fmt.Errorf("invalid duration character %q in %q", c, s)
		}
	}
	if current.Len() > 0 {
		n, err := strconv.Atoi(current.String())
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		total += n * 60
	}
	if total <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", s)
	}
	return total, nil
}
