package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tokens"
)

const systemPrompt = `You are a software architect planning an MVP build within a strict timebox.

IMPORTANT: Multiple agents will execute this plan IN PARALLEL. Task t1 (setup) runs first alone, then remaining tasks run concurrently across workers. Design tasks to be independent where possible.

Given a project specification, produce a structured JSON plan matching the provided schema.

CRITICAL RULES:
- THE APP MUST RUN. A broken app is a total failure regardless of how many features it has.
- Always request workspace_rw and shell_exec capabilities
- Task t1 MUST be "Set up project structure and install dependencies"
- Task t1 runs ALONE before all other tasks — it creates the foundation
- All other tasks should specify depends_on: ["t1"] unless they depend on another task
- Design tasks so parallel agents can work on them WITHOUT file conflicts
- Each task should own specific files/components — describe which files in the description
- Do NOT spend tasks on mock data files or placeholder content — inline minimal data in code

STACK SELECTION — match complexity to timebox:
- ≤5m: 2-3 MVP tasks. Simplest stack only: vanilla HTML/CSS/JS, single Python Flask file, or Express. No TypeScript, React, build tools, or Tailwind.
- 5-10m: 3-5 MVP tasks. Lightweight frameworks OK. Avoid TypeScript and complex build chains.
- 10-20m: 5-7 MVP tasks. Frameworks and TypeScript OK if the spec requires it.
- 20m+: Full stack OK, up to 8+ MVP tasks plus stretch tasks.

NEVER USE INTERACTIVE SCAFFOLDING TOOLS (create-react-app, npm create, npx create-*, yarn create) — they hang and waste the timebox. Write package.json/requirements.txt manually, then install.

Respond ONLY with the JSON object, no markdown fences or explanation.`

const planSchemaJSON = `{
  "type": "object",
  "properties": {
    "requested_capabilities": {"type": "array", "items": {
      "type": "object",
      "properties": {
        "cap": {"type": "string"},
        "why": {"type": "string"},
        "risk": {"type": "string", "enum": ["low", "medium", "high"]}
      },
      "required": ["cap", "why", "risk"]
    }},
    "tasks": {"type": "array", "items": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "title": {"type": "string"},
        "kind": {"type": "string", "enum": ["edit", "shell", "test"]},
        "priority": {"type": "string", "enum": ["mvp", "stretch"]},
        "description": {"type": "string"},
        "depends_on": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["id", "title", "kind"]
    }},
    "mvp_definition": {"type": "array", "items": {"type": "string"}},
    "exclusions": {"type": "array", "items": {"type": "string"}},
    "acceptance_plan": {"type": "array", "items": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "cmd": {"type": ["string", "null"]},
        "must_pass": {"type": "boolean"}
      },
      "required": ["name"]
    }}
  },
  "required": ["tasks"]
}`

var planSchema = mustCompileSchema(planSchemaJSON)

func mustCompileSchema(raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(err)
	}
	if err := compiler.AddResource("plan.json", doc); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("plan.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// maxRetries is the number of extra attempts the planner makes to coax a
// schema-valid JSON response out of the model before giving up.
const maxRetries = 2

// Generate asks provider to produce a build plan for spec, retrying with a
// corrective message when the response is not valid JSON or fails schema
// validation.
func Generate(ctx context.Context, spec *specfile.Spec, provider llm.Provider, tracker *tokens.Tracker) (Output, error) {
	acceptanceRaw := make([]string, 0, len(spec.Acceptance))
	for _, a := range spec.Acceptance {
		acceptanceRaw = append(acceptanceRaw, a.Raw)
	}
	acceptanceJSON, _ := json.Marshal(acceptanceRaw)
	constraintsJSON, _ := json.Marshal(spec.Constraints)
	stackJSON, _ := json.Marshal(spec.StackPrefs)

	userContent := fmt.Sprintf(
		"Project: %s\nTimebox: %s (%ds)\nConstraints: %s\nAcceptance criteria: %s\nStack preferences: %s\nRepo mode: %s\n\nSpec body:\n%s\n",
		spec.Name, spec.Timebox, spec.TimeboxSeconds, constraintsJSON, acceptanceJSON, stackJSON, spec.RepoMode, spec.Body,
	)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userContent},
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		response, err := provider.Complete(ctx, messages, nil, "")
		if err != nil {
			return Output{}, fmt.Errorf("plan completion: %w", err)
		}
		if tracker != nil {
			tracker.Add(response.Usage)
		}

		output, err := decode(response.Content)
		if err == nil {
			return output, nil
		}
		lastErr = err
		if attempt < maxRetries {
			messages = append(messages,
				llm.Message{Role: llm.RoleAssistant, Content: response.Content},
				llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("Your response was not valid JSON matching the plan schema. Error: %v. Please try again with valid JSON only.", err)},
			)
		}
	}

	return Output{}, fmt.Errorf("failed to generate valid plan after %d attempts: %w", maxRetries+1, lastErr)
}

func decode(raw string) (Output, error) {
	raw = stripFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Output{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := planSchema.Validate(doc); err != nil {
		return Output{}, fmt.Errorf("schema validation: %w", err)
	}

	var out Output
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Output{}, fmt.Errorf("decode plan: %w", err)
	}
	return out, nil
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return raw
	}
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return strings.Join(lines[1:], "\n")
}
