package phase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/noscope-dev/noscope/internal/deadline"
	"github.com/noscope-dev/noscope/internal/eventlog"
	"github.com/noscope-dev/noscope/internal/llm"
	"github.com/noscope-dev/noscope/internal/specfile"
	"github.com/noscope-dev/noscope/internal/tokens"
)

const verifySystemPrompt = `You are judging whether a just-built application satisfies its informational acceptance criteria. You cannot run commands; judge from the file listing and excerpts you are given. For each criterion, decide pass or fail and give one sentence of reasoning. Respond only with a JSON object matching the schema.`

const verifySchemaJSON = `{
  "type": "object",
  "properties": {
    "results": {"type": "array", "items": {
      "type": "object",
      "properties": {
        "criterion": {"type": "string"},
        "passed": {"type": "boolean"},
        "reasoning": {"type": "string"}
      },
      "required": ["criterion", "passed", "reasoning"]
    }}
  },
  "required": ["results"]
}`

var verifySchema = mustCompileVerifySchema()

func mustCompileVerifySchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal([]byte(verifySchemaJSON), &doc); err != nil {
		panic(err)
	}
	if err := compiler.AddResource("verify.json", doc); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("verify.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// JudgedCheck is an informational acceptance criterion judged by the LLM.
type JudgedCheck struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Reasoning string `json:"reasoning"`
}

// RunVerify asks provider to judge every informational (non-"cmd:")
// acceptance check against a snapshot of the workspace tree. It never
// returns an error: a malformed or failed LLM response degrades to an
// unjudged (failed) result per criterion rather than aborting the run.
func RunVerify(ctx context.Context, checks []specfile.AcceptanceCheck, workspaceTree string, provider llm.Provider, log *eventlog.Log, tracker *tokens.Tracker) []JudgedCheck {
	informational := make([]specfile.AcceptanceCheck, 0, len(checks))
	for _, c := range checks {
		if !c.IsCmd {
			informational = append(informational, c)
		}
	}
	log.Emit(string(deadline.PhaseVerify), "phase.start", fmt.Sprintf("judging %d informational criteria", len(informational)), nil, nil)

	if len(informational) == 0 {
		log.Emit(string(deadline.PhaseVerify), "phase.complete", "no informational criteria to judge", nil, nil)
		return nil
	}

	var criteriaList strings.Builder
	for _, c := range informational {
		criteriaList.WriteString("- " + c.Raw + "\n")
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: verifySystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Criteria:\n%s\nWorkspace tree:\n%s\n", criteriaList.String(), workspaceTree)},
	}

	response, err := provider.Complete(ctx, messages, nil, "")
	if err != nil {
		log.Emit(string(deadline.PhaseVerify), "phase.error", err.Error(), nil, nil)
		return unjudged(informational, "verification failed: "+err.Error())
	}
	if tracker != nil {
		tracker.Add(response.Usage)
	}

	results, err := decodeVerify(response.Content)
	if err != nil {
		log.Emit(string(deadline.PhaseVerify), "phase.error", err.Error(), nil, nil)
		return unjudged(informational, "verification response unparsable: "+err.Error())
	}

	passCount := 0
	for _, r := range results {
		if r.Passed {
			passCount++
		}
	}
	log.Emit(string(deadline.PhaseVerify), "phase.complete", fmt.Sprintf("%d/%d criteria passed", passCount, len(results)), nil, nil)
	return results
}

func decodeVerify(raw string) ([]JudgedCheck, error) {
	raw = stripFencesPublic(raw)
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := verifySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	var parsed struct {
		Results []JudgedCheck `json:"results"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return parsed.Results, nil
}

func unjudged(checks []specfile.AcceptanceCheck, reason string) []JudgedCheck {
	out := make([]JudgedCheck, len(checks))
	for i, c := range checks {
		out[i] = JudgedCheck{Criterion: c.Raw, Passed: false, Reasoning: reason}
	}
	return out
}

func stripFencesPublic(raw string) string {
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
