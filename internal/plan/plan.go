// Package plan models the build plan produced by the PLAN phase and the
// planner that generates it from a parsed spec.
package plan

import (
	"github.com/noscope-dev/noscope/internal/capability"
)

// TaskKind classifies the kind of work a Task represents.
type TaskKind string

// The three task kinds a planner may emit.
const (
	KindEdit  TaskKind = "edit"
	KindShell TaskKind = "shell"
	KindTest  TaskKind = "test"
)

// Priority distinguishes must-have work from stretch goals that are
// dropped first under time pressure.
type Priority string

// The two task priorities.
const (
	PriorityMVP     Priority = "mvp"
	PriorityStretch Priority = "stretch"
)

// Task is a single unit of build work.
type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Kind        TaskKind `json:"kind" yaml:"kind"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Description string   `json:"description" yaml:"description"`
	Completed   bool     `json:"completed" yaml:"completed"`
	DependsOn   []string `json:"depends_on" yaml:"depends_on"`
}

// AcceptancePlan is a single acceptance check the planner derived from the
// spec, augmented with an executable command when one is known.
type AcceptancePlan struct {
	Name     string `json:"name" yaml:"name"`
	Cmd      string `json:"cmd,omitempty" yaml:"cmd,omitempty"`
	MustPass bool   `json:"must_pass" yaml:"must_pass"`
}

// Output is the full result of the PLAN phase.
type Output struct {
	RequestedCapabilities []capability.Request `json:"requested_capabilities" yaml:"requested_capabilities"`
	Tasks                 []Task               `json:"tasks" yaml:"tasks"`
	MVPDefinition         []string             `json:"mvp_definition" yaml:"mvp_definition"`
	Exclusions            []string             `json:"exclusions" yaml:"exclusions"`
	AcceptancePlan        []AcceptancePlan      `json:"acceptance_plan" yaml:"acceptance_plan"`
}

// Empty returns a zero-value Output, used as a fallback when planning
// fails before HANDOFF must still run.
func Empty() Output {
	return Output{}
}
