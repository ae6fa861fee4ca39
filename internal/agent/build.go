package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/plan"
	"github.com/noscope-dev/noscope/internal/policy"
	"github.com/noscope-dev/noscope/internal/tokens"
	"github.com/noscope-dev/noscope/internal/tool"
)

// MaxIterations bounds how many LLM round-trips a single BuildAgent will
// make before giving up and returning whatever tasks it completed.
const MaxIterations = 200

// TimeStatusInterval is how often (in completed tool calls) a BuildAgent
// injects a "time remaining / tasks done" status message into its own
// conversation.
const TimeStatusInterval = 3

const markTaskCompleteTool = "mark_task_complete"

var fileToolNames = map[string]struct{}{
	"write_file": {}, "read_file": {}, "list_directory": {}, "create_directory": {},
}

// BuildAgent runs its own LLM conversation loop, executing tool calls and
// tracking completion of an assigned task set. Multiple BuildAgents can
// run concurrently against non-overlapping task sets.
type BuildAgent struct {
	AgentID    string
	Provider   llm.Provider
	Dispatcher *tool.Dispatcher
	Context    *tool.Context
	EventLog   *eventlog.Log
	Deadline   *deadline.Deadline
	Observer   Observer
	Tokens     *tokens.Tracker
	Policy     *policy.Engine

	toolCallCount int
}

// Run executes the agent's assigned tasks against systemPrompt, returning
// the same tasks with Completed flags updated in place.
func (a *BuildAgent) Run(ctx context.Context, tasks []plan.Task, systemPrompt string) []plan.Task {
	taskMap := make(map[string]*plan.Task, len(tasks))
	for i := range tasks {
		taskMap[tasks[i].ID] = &tasks[i]
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: initialPrompt(tasks)})

	toolSchemas := toLLMSchemas(a.Dispatcher.Schemas())
	toolSchemas = append(toolSchemas, llm.Schema{
		Name:        markTaskCompleteTool,
		Description: "Mark a task as completed. Call this after finishing each task.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "The task ID (e.g., t1, t2)"},
			},
			"required": []string{"task_id"},
		},
	})

	for iter := 0; iter < MaxIterations; iter++ {
		if a.Deadline.IsExpired() || a.Deadline.ShouldTransition(deadline.PhaseBuild) != "" {
			break
		}
		if allCompleted(tasks) {
			a.EventLog.Emit(string(deadline.PhaseBuild), "agent.tasks_complete",
				fmt.Sprintf("agent %s: all %d tasks complete", a.AgentID, len(tasks)),
				map[string]any{"agent_id": a.AgentID}, nil)
			break
		}

		response, err := a.Provider.Complete(ctx, messages, toolSchemas, "")
		if err != nil {
			a.EventLog.Emit(string(deadline.PhaseBuild), "llm.error", err.Error(), map[string]any{"agent_id": a.AgentID}, nil)
			break
		}
		if a.Tokens != nil {
			a.Tokens.Add(response.Usage)
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: response.Content, ToolCalls: response.ToolCalls})

		if response.Content != "" {
			a.EventLog.Emit(string(deadline.PhaseBuild), "llm.response", fmt.Sprintf("[%s] %s", a.AgentID, truncate(response.Content, 200)), nil, nil)
			if a.Observer != nil {
				a.Observer.LLMThinking(fmt.Sprintf("[%s] %s", a.AgentID, truncate(response.Content, 150)), a.Deadline)
			}
		}

		if len(response.ToolCalls) == 0 {
			if response.StopReason == "end_turn" {
				break
			}
			continue
		}

		messages = append(messages, a.executeToolCalls(ctx, response.ToolCalls, taskMap)...)

		a.toolCallCount += len(response.ToolCalls)
		if a.toolCallCount%TimeStatusInterval == 0 {
			completed := countCompleted(tasks)
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("%s remaining | %d/%d tasks done", a.Deadline.FormatRemaining(), completed, len(tasks)),
			})
		}
	}

	return tasks
}

// executeToolCalls separates the caller's tool calls into the virtual
// mark_task_complete call (handled in-process), file operations (fanned
// out concurrently), and shell commands (run sequentially, since they may
// depend on one another), then appends their results in that fixed group
// order.
func (a *BuildAgent) executeToolCalls(ctx context.Context, calls []llm.ToolCall, taskMap map[string]*plan.Task) []llm.Message {
	var virtual, file, shell []llm.ToolCall
	for _, tc := range calls {
		switch {
		case tc.Name == markTaskCompleteTool:
			virtual = append(virtual, tc)
		default:
			if _, isFile := fileToolNames[tc.Name]; isFile {
				file = append(file, tc)
			} else {
				shell = append(shell, tc)
			}
		}
	}

	results := make([]llm.Message, 0, len(calls))

	for _, tc := range virtual {
		taskID, _ := tc.Arguments["task_id"].(string)
		if t, ok := taskMap[taskID]; ok {
			t.Completed = true
			a.EventLog.Emit(string(deadline.PhaseBuild), "task.complete",
				fmt.Sprintf("[%s] task %s: %s", a.AgentID, taskID, t.Title),
				map[string]any{"task_id": taskID, "agent_id": a.AgentID}, nil)
			if a.Observer != nil {
				a.Observer.TaskComplete(taskID, t.Title, a.Deadline)
			}
			results = append(results, llm.Message{Role: llm.RoleTool, Content: fmt.Sprintf("Task %s marked as complete.", taskID), ToolCallID: tc.ID})
		} else {
			results = append(results, llm.Message{Role: llm.RoleTool, Content: fmt.Sprintf("Unknown task ID: %s", taskID), ToolCallID: tc.ID})
		}
	}

	if len(file) > 0 {
		fileResults := make([]llm.Message, len(file))
		g, gctx := errgroup.WithContext(ctx)
		for i, tc := range file {
			i, tc := i, tc
			g.Go(func() error {
				fileResults[i] = a.dispatchAndWrap(gctx, tc)
				return nil
			})
		}
		_ = g.Wait()
		results = append(results, fileResults...)
	}

	for _, tc := range shell {
		if a.Policy != nil {
			if decision := a.Policy.Evaluate(tc.Name); !decision.Allowed {
				results = append(results, llm.Message{Role: llm.RoleTool, Content: "denied by risk policy: " + decision.Reason, ToolCallID: tc.ID})
				continue
			}
		}
		if a.Observer != nil {
			a.Observer.ToolActivity(tc.Name, summarize(tc.Name, tc.Arguments), a.Deadline)
		}
		result := a.Dispatcher.Dispatch(ctx, tc.Name, tc.Arguments, a.Context)
		results = append(results, llm.Message{Role: llm.RoleTool, Content: displayOrJSON(result), ToolCallID: tc.ID})
	}

	return results
}

func (a *BuildAgent) dispatchAndWrap(ctx context.Context, tc llm.ToolCall) llm.Message {
	if a.Observer != nil {
		a.Observer.ToolActivity(tc.Name, summarize(tc.Name, tc.Arguments), a.Deadline)
	}
	result := a.Dispatcher.Dispatch(ctx, tc.Name, tc.Arguments, a.Context)
	return llm.Message{Role: llm.RoleTool, Content: displayOrJSON(result), ToolCallID: tc.ID}
}

func displayOrJSON(result tool.Result) string {
	if result.Display != "" {
		return result.Display
	}
	data, _ := json.Marshal(result.Data)
	return string(data)
}

func initialPrompt(tasks []plan.Task) string {
	list := ""
	for _, t := range tasks {
		list += fmt.Sprintf("- [%s] %s (%s, %s): %s\n", t.ID, t.Title, t.Kind, t.Priority, t.Description)
	}
	start := "none"
	if len(tasks) > 0 {
		start = tasks[0].ID
	}
	return fmt.Sprintf("Execute these tasks. Work through each in order.\n\n%s\nStart with task %s.", list, start)
}

func allCompleted(tasks []plan.Task) bool {
	for _, t := range tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

func countCompleted(tasks []plan.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

func toLLMSchemas(schemas []tool.Schema) []llm.Schema {
	out := make([]llm.Schema, len(schemas))
	for i, s := range schemas {
		out[i] = llm.Schema{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func summarize(name string, args map[string]any) string {
	switch name {
	case "write_file":
		return "writing " + stringArg(args, "path", "?")
	case "read_file":
		return "reading " + stringArg(args, "path", "?")
	case "exec_command":
		cmd := stringArg(args, "command", "")
		if len(cmd) <= 80 {
			return cmd
		}
		return cmd[:77] + "..."
	case "list_directory":
		return "listing " + stringArg(args, "path", ".")
	case "create_directory":
		return "creating " + stringArg(args, "path", "?")
	case "git_init", "git_status", "git_add", "git_commit", "git_diff":
		return name
	default:
		return name
	}
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}
