package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// plannerSystemPrompt builds the system text for the chat graph's plan
// stage: mode-aware framing, allowed tool catalog, and the anti-fabrication
// rules (spec.md §4.10). Grounded on rca.plannerSystemPrompt, generalized
// for a conversational (not single-shot verdict) loop.
func plannerSystemPrompt(cc Context, allowed []string) string {
	var b strings.Builder
	if cc.Mode == ModeCase {
		b.WriteString("You are Tarka's on-call assistant, answering questions about one specific case. Decide whether you need to call any tools before replying; plan at most 3 tool calls per round.\n\n")
	} else {
		b.WriteString("You are Tarka's on-call assistant, answering questions across the whole case inbox. Decide whether you need to call any tools before replying; plan at most 3 tool calls per round.\n\n")
	}
	b.WriteString("Allowed tools:\n")
	for _, id := range allowed {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	b.WriteString("\n")
	b.WriteString(llm.ForbidFabrication)
	return b.String()
}

// respondSystemPrompt builds the system text for the final, streamed
// respond stage.
func respondSystemPrompt(cc Context) string {
	var b strings.Builder
	b.WriteString("You are Tarka's on-call assistant. Reply conversationally and concisely, grounded only in the analysis snapshot and tool results you were given. Never invent facts not present in that evidence.\n\n")
	b.WriteString(llm.ForbidFabrication)
	return b.String()
}

// turnContext renders the compact JSON context the plan/respond stages see:
// snapshot (case mode only), prior messages, and tool history so far, so the
// model can honor "never repeat a (tool,key) pair".
func turnContext(cc Context, history []models.ChatMessage, events []tools.Event) string {
	payload := map[string]any{
		"mode": cc.Mode,
	}
	if cc.Snapshot != nil {
		payload["analysis_snapshot"] = cc.Snapshot
	}
	if cc.TargetName != "" {
		payload["target"] = cc.TargetName
	}
	if len(history) > 0 {
		payload["history"] = history
	}
	if len(events) > 0 {
		payload["tool_events"] = toolEventSummaries(events)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("context unavailable: %v", err)
	}
	return string(b)
}

func toolEventSummaries(events []tools.Event) []map[string]any {
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]any{
			"tool":    ev.Tool,
			"key":     ev.Key,
			"outcome": ev.Outcome,
			"summary": ev.Summary,
			"result":  ev.Result.Result,
		})
	}
	return out
}
