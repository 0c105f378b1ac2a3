package diagnosis

import (
	"github.com/bytedance/sonic"
)

// Severity levels the prompt contract allows.
const (
	SeverityMild     = "Mild"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"
)

// Payload is the fixed-schema diagnosis object the model returns. Every
// field is mandatory in the wire contract; absent data arrives as "" or []
// rather than a missing key.
type Payload struct {
	Diagnosis       Details         `json:"diagnosis"`
	Recommendations Recommendations `json:"recommendations"`
	Disclaimer      string          `json:"disclaimer"`
}

type Details struct {
	Title             string   `json:"title"`
	IdentifiedProblem string   `json:"identified_problem"`
	Severity          string   `json:"severity"`
	SymptomsObserved  []string `json:"symptoms_observed"`
	PossibleCauses    []string `json:"possible_causes"`
}

type Recommendations struct {
	Title            string   `json:"title"`
	ImmediateActions []string `json:"immediate_actions"`
	LongTermCare     []string `json:"long_term_care"`
	PreventionTips   []string `json:"prevention_tips"`
}

// ParsePayload decodes diagnosis text into the typed payload. The service
// persists the raw text verbatim; this is for callers that want the fields.
func ParsePayload(text string) (*Payload, error) {
	var payload Payload
	if err := sonic.UnmarshalString(text, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
