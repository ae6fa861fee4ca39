// Package policy filters the tool set an agent may call based on the
// spec's risk_policy tier, and caps how many shell commands a single
// agent may issue before the policy forces a narrower retry.
package policy

import (
	"strings"

	"github.com/noscope-dev/noscope/internal/specfile"
)

// strictBlockedTools lists tools the "strict" risk tier refuses outright,
// regardless of what capabilities were granted.
var strictBlockedTools = toSet([]string{"exec_command"})

// permissiveOnlyTags are tags the "strict" tier refuses; "default" and
// "permissive" allow them through.
var permissiveOnlyTags = toSet([]string{"network", "destructive"})

// Decision is the outcome of evaluating a tool call against the active
// risk policy.
type Decision struct {
	Allowed bool
	Reason  string
}

// Engine filters tool calls according to a RiskPolicy tier.
type Engine struct {
	tier           specfile.RiskPolicy
	shellCallCount int
	shellCallCap   int
}

// toolTags classifies each built-in tool for the strict/permissive filters.
// Filesystem and git tools are considered safe by default; shell execution
// (exec_command) carries the "network"/"destructive" tags since it can
// reach outside the workspace.
var toolTags = map[string][]string{
	"exec_command":    {"destructive", "network"},
	"write_file":      {},
	"read_file":       {},
	"list_directory":  {},
	"create_directory": {},
	"git_init":        {},
	"git_status":      {},
	"git_add":         {},
	"git_commit":      {},
	"git_diff":        {},
}

// New builds an Engine for the given risk tier. A "strict" tier blocks
// exec_command on every call, so its cap of 10 is never reached;
// "default" caps shell calls at 50 per agent; "permissive" is uncapped.
func New(tier specfile.RiskPolicy) *Engine {
	cap := 0
	switch tier {
	case specfile.RiskStrict:
		cap = 10
	case specfile.RiskDefault:
		cap = 50
	case specfile.RiskPermissive:
		cap = 0
	}
	return &Engine{tier: tier, shellCallCap: cap}
}

// Evaluate decides whether toolName may be called next. It is stateful:
// repeated shell calls count against the tier's cap.
func (e *Engine) Evaluate(toolName string) Decision {
	if e.tier == specfile.RiskStrict {
		if _, blocked := strictBlockedTools[toolName]; blocked {
			return Decision{Allowed: false, Reason: "exec_command is blocked under the strict risk policy"}
		}
	}

	tags := toolTags[toolName]
	if e.tier != specfile.RiskPermissive {
		for _, tag := range tags {
			if _, restricted := permissiveOnlyTags[tag]; restricted && e.tier == specfile.RiskStrict {
				return Decision{Allowed: false, Reason: "tag " + tag + " requires a less restrictive risk policy"}
			}
		}
	}

	if toolName == "exec_command" {
		e.shellCallCount++
		if e.shellCallCap > 0 && e.shellCallCount > e.shellCallCap {
			return Decision{Allowed: false, Reason: "shell call cap reached for this risk policy"}
		}
	}

	return Decision{Allowed: true}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}
