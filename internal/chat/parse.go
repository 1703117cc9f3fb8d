package chat

import (
	"encoding/json"
	"fmt"

	"github.com/tarkyaio/tarka/internal/llm"
)

// planResult mirrors rca.planResult: the decoded shape of llm.ToolPlanSchema
// (spec.md §4.10's "tool_calls" array). Kept as a local, unexported copy
// since rca's type isn't reachable from another package.
type planResult struct {
	Thinking  string         `json:"thinking"`
	ToolCalls []llm.ToolCall `json:"tool_calls"`
}

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
		return planResult{}, fmt.Errorf("chat: decoding tool plan: %w", err)
	}

	plan := planResult{Thinking: out.Thinking}
	for i, tc := range out.ToolCalls {
		if i >= 3 {
			break
		}
		plan.ToolCalls = append(plan.ToolCalls, llm.ToolCall{Name: tc.Tool, Args: tc.Args})
	}
	return plan, nil
}

// structuredPayload extracts the JSON payload from a StructuredResult,
// mirroring rca.structuredPayload.
func structuredPayload(res llm.StructuredResult) ([]byte, error) {
	if len(res.ToolCalls) > 0 {
		b, err := json.Marshal(res.ToolCalls[0].Args)
		if err != nil {
			return nil, fmt.Errorf("chat: re-marshaling tool call args: %w", err)
		}
		return b, nil
	}
	if res.Text == "" {
		return nil, fmt.Errorf("chat: empty structured result")
	}
	return []byte(res.Text), nil
}
