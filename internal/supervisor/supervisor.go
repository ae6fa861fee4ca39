// Package supervisor partitions a plan's tasks across a bounded pool of
// BuildAgents and runs them, along with a continuous AuditAgent, for the
// duration of the BUILD phase.
package supervisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noscope-dev/noscope/internal/agent"
	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/plan"
	"github.com/noscope-dev/noscope/internal/policy"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tokens"
	"github.com/noscope-dev/noscope/internal/tool"
)

// MaxWorkers caps the number of concurrent BuildAgents, regardless of how
// many independent task chains the plan contains.
const MaxWorkers = 3

// Supervisor owns BUILD-phase concurrency: it partitions tasks into
// dependency-respecting groups, launches one BuildAgent per group plus one
// AuditAgent, and waits for them all to finish or for the deadline to
// expire.
type Supervisor struct {
	Provider   llm.Provider
	Dispatcher *tool.Dispatcher
	Context    *tool.Context
	EventLog   *eventlog.Log
	Deadline   *deadline.Deadline
	Observer   agent.Observer
	Tokens     *tokens.Tracker
	RiskPolicy specfile.RiskPolicy
}

// Run executes the setup task to completion on a single BuildAgent, then
// partitions whatever remains and launches the worker pool and the audit
// agent concurrently. It returns the merged, completion-updated task list
// and any audit findings collected along the way.
func (s *Supervisor) Run(ctx context.Context, tasks []plan.Task) ([]plan.Task, []agent.Finding) {
	setup, rest := splitSetup(tasks)

	merged := make([]plan.Task, 0, len(tasks))
	if setup != nil {
		setupWorker := &agent.BuildAgent{
			AgentID:    "setup",
			Provider:   s.Provider,
			Dispatcher: s.Dispatcher,
			Context:    s.Context,
			EventLog:   s.EventLog,
			Deadline:   s.Deadline,
			Observer:   s.Observer,
			Tokens:     s.Tokens,
			Policy:     policy.New(s.RiskPolicy),
		}
		merged = append(merged, setupWorker.Run(ctx, []plan.Task{*setup}, setupPrompt(*setup))...)
	}

	groups := partitionTasks(rest)

	auditCtx, cancelAudit := context.WithCancel(ctx)
	defer cancelAudit()

	auditor := &agent.AuditAgent{Dispatcher: s.Dispatcher, Context: s.Context, EventLog: s.EventLog, Deadline: s.Deadline}
	go auditor.RunContinuous(auditCtx)

	var wg sync.WaitGroup
	results := make([][]plan.Task, len(groups))
	for i, group := range groups {
		wg.Add(1)
		go func(i int, group []plan.Task) {
			defer wg.Done()
			prompt := workerPrompt(i, len(groups), group)
			worker := &agent.BuildAgent{
				AgentID:    fmt.Sprintf("worker-%d", i+1),
				Provider:   s.Provider,
				Dispatcher: s.Dispatcher,
				Context:    s.Context,
				EventLog:   s.EventLog,
				Deadline:   s.Deadline,
				Observer:   s.Observer,
				Tokens:     s.Tokens,
				Policy:     policy.New(s.RiskPolicy),
			}
			results[i] = worker.Run(ctx, group, prompt)
		}(i, group)
	}
	wg.Wait()
	cancelAudit()

	for _, g := range results {
		merged = append(merged, g...)
	}
	return merged, auditor.Findings
}

// splitSetup pulls out the single setup task: the task with id "t1" if one
// exists, otherwise the first task whose title contains "install", "init",
// "setup", "bootstrap" or "scaffold" (case-insensitive), otherwise the
// first task in plan order. That task runs alone, to
// completion, before the remaining tasks are partitioned across workers.
func splitSetup(tasks []plan.Task) (setup *plan.Task, rest []plan.Task) {
	if len(tasks) == 0 {
		return nil, nil
	}

	idx := -1
	for i, t := range tasks {
		if t.ID == "t1" {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, t := range tasks {
			if isSetupTitle(t.Title) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		idx = 0
	}

	setupTask := tasks[idx]
	rest = make([]plan.Task, 0, len(tasks)-1)
	for i, t := range tasks {
		if i != idx {
			rest = append(rest, t)
		}
	}
	return &setupTask, rest
}

func isSetupTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range []string{"install", "init", "setup", "bootstrap", "scaffold"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// partitionTasks groups the remaining tasks into up to MaxWorkers
// dependency-respecting chains. Tasks are first grouped by connected
// component of the DependsOn graph (so a dependent task never lands in a
// different group than what it depends on); if that yields more than
// MaxWorkers groups, the smallest two are repeatedly merged until the cap
// is met. A task with no dependency relation to anything forms its own
// single-task component and is merged like any other group.
func partitionTasks(tasks []plan.Task) [][]plan.Task {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[string]plan.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	parent := make(map[string]string, len(tasks))
	var find func(string) string
	find = func(id string) string {
		if parent[id] == "" || parent[id] == id {
			parent[id] = id
			return id
		}
		root := find(parent[id])
		parent[id] = root
		return root
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, t := range tasks {
		find(t.ID)
		for _, dep := range t.DependsOn {
			if _, ok := byID[dep]; ok {
				union(t.ID, dep)
			}
		}
	}

	componentOf := make(map[string][]plan.Task)
	for _, t := range tasks {
		root := find(t.ID)
		componentOf[root] = append(componentOf[root], t)
	}

	groups := make([][]plan.Task, 0, len(componentOf))
	for _, g := range componentOf {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return len(groups[i]) > len(groups[j]) })

	for len(groups) > MaxWorkers {
		sort.Slice(groups, func(i, j int) bool { return len(groups[i]) < len(groups[j]) })
		merged := append(groups[0], groups[1]...)
		groups = append([][]plan.Task{merged}, groups[2:]...)
	}

	return groups
}

func setupPrompt(task plan.Task) string {
	return fmt.Sprintf(
		"You are the setup agent, running alone before any other workers start. Your only assigned task "+
			"is %s: %s. Complete it fully and call mark_task_complete for %s when done; the rest of the "+
			"build will not begin until you finish.",
		task.ID, task.Title, task.ID,
	)
}

func workerPrompt(index, total int, group []plan.Task) string {
	return fmt.Sprintf(
		"You are build worker %d of %d, running concurrently with the other workers against the same "+
			"workspace. Your assigned task ids are: %s. Stay within this list; do not touch files outside "+
			"what these tasks require. Call mark_task_complete after finishing each task, in order. If a "+
			"task depends on another worker's output and that output isn't present yet, note it and move "+
			"to your next task.",
		index+1, total, taskIDs(group),
	)
}

func taskIDs(group []plan.Task) string {
	ids := make([]string, len(group))
	for i, t := range group {
		ids[i] = t.ID
	}
	return strings.Join(ids, ", ")
}
