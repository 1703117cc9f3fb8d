package rca

import (
	"encoding/json"
	"fmt"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
)

// planResult is the parsed shape of llm.ToolPlanSchema's JSON (spec.md
// §4.10's "tool_calls" array, at most 3 entries).
type planResult struct {
	Thinking  string         `json:"thinking"`
	ToolCalls []llm.ToolCall `json:"tool_calls"`
}

// parsePlanResult decodes the model's structured reply into a planResult.
// When the model used a forced tool call instead of replying with raw JSON
// (StructuredResult.ToolCalls non-empty), its single emit_structured_output
// call's Args carries the schema-conformant payload directly.
func parsePlanResult(res llm.StructuredResult) (planResult, error) {
	raw, err := structuredPayload(res)
	if err != nil {
		return planResult{}, err
	}

	var out struct {
		Thinking  string `json:"thinking"`
		ToolCalls []struct {
			Tool string         `json:"tool"`
			Args map[string]any `json:"args"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return planResult{}, fmt.Errorf("rca: decoding tool plan: %w", err)
	}

	plan := planResult{Thinking: out.Thinking}
	for i, tc := range out.ToolCalls {
		if i >= 3 {
			break // schema already clamps maxItems, belt-and-suspenders
		}
		plan.ToolCalls = append(plan.ToolCalls, llm.ToolCall{Name: tc.Tool, Args: tc.Args})
	}
	return plan, nil
}

// parseSynthResult decodes the model's structured reply into an
// models.RCAResult (spec.md §4.8's synth output shape).
func parseSynthResult(res llm.StructuredResult) *models.RCAResult {
	raw, err := structuredPayload(res)
	if err != nil {
		return &models.RCAResult{Status: models.RCAStatusError, Summary: fmt.Sprintf("synthesis unparsable: %v", err)}
	}

	var out struct {
		Status        string   `json:"status"`
		Summary       string   `json:"summary"`
		RootCause     string   `json:"root_cause"`
		Confidence0To1 float64 `json:"confidence_0_1"`
		Evidence      []string `json:"evidence"`
		Remediation   []string `json:"remediation"`
		Unknowns      []string `json:"unknowns"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return &models.RCAResult{Status: models.RCAStatusError, Summary: fmt.Sprintf("synthesis undecodable: %v", err)}
	}

	status := models.RCAStatus(out.Status)
	switch status {
	case models.RCAStatusOK, models.RCAStatusUnknown, models.RCAStatusBlocked, models.RCAStatusUnavailable, models.RCAStatusError:
	default:
		status = models.RCAStatusUnknown
	}

	return &models.RCAResult{
		Status:         status,
		Summary:        out.Summary,
		RootCause:      out.RootCause,
		Confidence0To1: out.Confidence0To1,
		Evidence:       out.Evidence,
		Remediation:    out.Remediation,
		Unknowns:       out.Unknowns,
	}
}

// structuredPayload extracts the JSON payload from a StructuredResult: either
// the text the model replied with directly, or (when the provider only
// supports tool-forced structured output, per the anthropic provider's
// emit_structured_output convention) the first tool call's Args re-marshaled.
func structuredPayload(res llm.StructuredResult) ([]byte, error) {
	if len(res.ToolCalls) > 0 {
		b, err := json.Marshal(res.ToolCalls[0].Args)
		if err != nil {
			return nil, fmt.Errorf("rca: re-marshaling tool call args: %w", err)
		}
		return b, nil
	}
	if res.Text == "" {
		return nil, fmt.Errorf("rca: empty structured result")
	}
	return []byte(res.Text), nil
}
