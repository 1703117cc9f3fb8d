package chat

import (
	"context"

	"github.com/tarkyaio/tarka/internal/chat/summaries"
	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/tools"
)

// SSEKind enumerates the console's chat SSE event types (spec.md §6
// "events: init | thinking | planning | tool_start | tool_end | token |
// done | error").
type SSEKind string

const (
	SSEInit      SSEKind = "init"
	SSEThinking  SSEKind = "thinking"
	SSEPlanning  SSEKind = "planning"
	SSEToolStart SSEKind = "tool_start"
	SSEToolEnd   SSEKind = "tool_end"
	SSEToken     SSEKind = "token"
	SSEDone      SSEKind = "done"
	SSEError     SSEKind = "error"
)

// SSEEvent is one event httpapi's SSE writer frames as
// "event: <kind>\ndata: <json>\n\n" (spec.md §6 "SSE framing").
type SSEEvent struct {
	Kind SSEKind `json:"-"`
	Data any     `json:"data,omitempty"`
}

// doneData is SSEDone's payload.
type doneData struct {
	Reply           string        `json:"reply"`
	ToolEvents      []tools.Event `json:"tool_events"`
	UpdatedAnalysis any           `json:"updated_analysis,omitempty"`
}

// RunStream drives the two-stage streamed turn (spec.md §4.9 "Streaming"):
// a blocking plan stage, tool execution with tool_start/tool_end, then a
// streamed respond stage. Events are pushed onto the returned channel,
// which is closed when the turn completes, errors, or ctx is canceled.
func (g *Graph) RunStream(ctx context.Context, cc Context, msg string, history []models.ChatMessage, allowedTools []string) <-chan SSEEvent {
	out := make(chan SSEEvent, 8)

	go func() {
		defer close(out)

		send := func(ev SSEEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(SSEEvent{Kind: SSEInit}) {
			return
		}

		inv := invocationFor(cc)
		inv.Allowed = allowedTools
		st := &state{
			remainingSteps:     g.Budget.MaxSteps,
			remainingToolCalls: g.Budget.MaxToolCalls,
		}

		for st.remainingSteps > 0 && st.remainingToolCalls > 0 && !st.failFast {
			if ctx.Err() != nil {
				return
			}
			st.remainingSteps--

			plan, err := g.plan(ctx, cc, history, st, allowedTools)
			if err != nil {
				if !send(SSEEvent{Kind: SSEError, Data: err.Error()}) {
					return
				}
				break
			}
			if plan.Thinking != "" {
				if !send(SSEEvent{Kind: SSEThinking, Data: plan.Thinking}) {
					return
				}
			}
			if len(plan.ToolCalls) == 0 {
				break
			}
			if !send(SSEEvent{Kind: SSEPlanning, Data: plan.ToolCalls}) {
				return
			}

			roundErrored, roundTotal := 0, 0
			for _, call := range plan.ToolCalls {
				if st.remainingToolCalls <= 0 {
					break
				}
				st.remainingToolCalls--
				roundTotal++

				if !send(SSEEvent{Kind: SSEToolStart, Data: map[string]string{"tool": call.Name, "message": summaries.Start(call.Name)}}) {
					return
				}

				ev := g.Executor.Call(ctx, &inv, call.Name, call.Args)
				st.events = append(st.events, ev)
				if ev.Outcome == tools.OutcomeError {
					roundErrored++
				}

				if !send(SSEEvent{Kind: SSEToolEnd, Data: map[string]any{
					"tool": call.Name, "message": summaries.End(call.Name, ev.Outcome == tools.OutcomeOK), "event": ev,
				}}) {
					return
				}
			}

			if roundTotal > 0 && roundErrored == roundTotal {
				st.failFast = true
			}
		}

		reply, ok := g.streamRespond(ctx, cc, msg, history, st, send)
		if !ok {
			return
		}

		send(SSEEvent{Kind: SSEDone, Data: doneData{
			Reply:           reply,
			ToolEvents:      st.events,
			UpdatedAnalysis: lastUpdatedAnalysis(st.events),
		}})
	}()

	return out
}

// streamRespond drives the streamed respond stage, forwarding token/thinking
// events and accumulating the full reply text for persistence.
func (g *Graph) streamRespond(ctx context.Context, cc Context, msg string, history []models.ChatMessage, st *state, send func(SSEEvent) bool) (string, bool) {
	system := respondSystemPrompt(cc)
	events, err := g.LLM.StreamTokens(ctx, llm.StructuredRequest{
		PromptVersion: llm.PromptEnrichV1,
		System:        system,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: turnContext(cc, history, st.events)},
			{Role: llm.RoleUser, Content: msg},
		},
		MaxTokens: 1500,
	})
	if err != nil {
		send(SSEEvent{Kind: SSEError, Data: err.Error()})
		return "", false
	}

	var reply string
	for ev := range events {
		switch ev.Kind {
		case llm.StreamToken:
			reply += ev.Text
			if !send(SSEEvent{Kind: SSEToken, Data: ev.Text}) {
				return "", false
			}
		case llm.StreamThinking:
			if !send(SSEEvent{Kind: SSEThinking, Data: ev.Text}) {
				return "", false
			}
		case llm.StreamDone:
		}
	}
	return reply, true
}

func lastUpdatedAnalysis(events []tools.Event) any {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Result.UpdatedAnalysis != nil {
			return events[i].Result.UpdatedAnalysis
		}
	}
	return nil
}
