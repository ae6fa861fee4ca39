// Package contract writes the frozen scope contract — the immutable
// success criteria a run is judged against — to disk once planning and
// capability review are complete.
package contract

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/noscope-dev/noscope/internal/capability"
	"github.com/noscope-dev/noscope/internal/plan"
	"github.com/noscope-dev/noscope/internal/specfile"
)

// Document is the serialized shape of contract.json.
type Document struct {
	Name             string                  `json:"name"`
	Timebox          string                  `json:"timebox"`
	TimeboxSeconds   int                     `json:"timebox_seconds"`
	Constraints      []string                `json:"constraints"`
	MVPDefinition    []string                `json:"mvp_definition"`
	Exclusions       []string                `json:"exclusions"`
	Tasks            []plan.Task             `json:"tasks"`
	AcceptancePlan   []plan.AcceptancePlan    `json:"acceptance_plan"`
	CapabilityGrants []capability.Grant       `json:"capability_grants"`
	SpecAcceptance   []specfile.AcceptanceCheck `json:"spec_acceptance"`
}

// Generate builds the contract document and writes it to outputPath as
// indented JSON.
func Generate(spec *specfile.Spec, planOutput plan.Output, grants []capability.Grant, outputPath string) (Document, error) {
	doc := Document{
		Name:             spec.Name,
		Timebox:          spec.Timebox,
		TimeboxSeconds:   spec.TimeboxSeconds,
		Constraints:      spec.Constraints,
		MVPDefinition:    planOutput.MVPDefinition,
		Exclusions:       planOutput.Exclusions,
		Tasks:            planOutput.Tasks,
		AcceptancePlan:   planOutput.AcceptancePlan,
		CapabilityGrants: grants,
		SpecAcceptance:   spec.Acceptance,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("marshal contract: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return Document{}, fmt.Errorf("write contract: %w", err)
	}
	return doc, nil
}
