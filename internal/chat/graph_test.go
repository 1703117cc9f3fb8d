package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/tools"
)

// fakeLLM is a scripted llm.Client, mirroring rca's test fake: each call to
// GenerateStructured pops the next queued plan result once plans are
// exhausted it falls back to the configured respond text.
type fakeLLM struct {
	plans   []llm.StructuredResult
	respond llm.StructuredResult
	calls   int
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, req llm.StructuredRequest) (llm.StructuredResult, error) {
	f.calls++
	if req.PromptVersion == llm.PromptEnrichV1 {
		return f.respond, nil
	}
	if len(f.plans) == 0 {
		return llm.StructuredResult{Text: `{"tool_calls":[]}`}, nil
	}
	next := f.plans[0]
	f.plans = f.plans[1:]
	return next, nil
}

func (f *fakeLLM) StreamTokens(ctx context.Context, req llm.StructuredRequest) (<-chan llm.StreamEvent, error) {
	ch := make(chan llm.StreamEvent, 2)
	ch <- llm.StreamEvent{Kind: llm.StreamToken, Text: f.respond.Text}
	ch <- llm.StreamEvent{Kind: llm.StreamDone}
	close(ch)
	return ch, nil
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestGraphRun_NoToolsCallsRespondDirectly(t *testing.T) {
	fake := &fakeLLM{
		plans:   []llm.StructuredResult{{Text: `{"tool_calls":[]}`}},
		respond: llm.StructuredResult{Text: "The checkout service looks healthy right now."},
	}
	g := NewGraph(fake, tools.NewExecutor(tools.NewRegistry(), nil, false), tools.NewRegistry(), DefaultBudget)

	turn := g.Run(context.Background(), Context{Mode: ModeCase}, "how's it doing?", nil, nil)

	assert.Equal(t, "The checkout service looks healthy right now.", turn.Reply)
	assert.Empty(t, turn.ToolEvents)
}

func TestGraphRun_ExecutesPlannedTools(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("k8s.pod_context", false, func(ctx context.Context, inv *tools.Invocation, args map[string]any) tools.Result {
		return tools.Result{OK: true, Result: map[string]any{"phase": "Running"}}
	})

	fake := &fakeLLM{
		plans: []llm.StructuredResult{
			{Text: mustJSON(t, map[string]any{"tool_calls": []map[string]any{
				{"tool": "k8s.pod_context", "args": map[string]any{}},
			}})},
			{Text: `{"tool_calls":[]}`},
		},
		respond: llm.StructuredResult{Text: "The pod is Running."},
	}
	g := NewGraph(fake, tools.NewExecutor(r, nil, false), r, DefaultBudget)

	turn := g.Run(context.Background(), Context{Mode: ModeCase}, "is the pod up?", nil, []string{"k8s.pod_context"})

	require.Len(t, turn.ToolEvents, 1)
	assert.Equal(t, tools.OutcomeOK, turn.ToolEvents[0].Outcome)
	assert.Equal(t, "The pod is Running.", turn.Reply)
}

func TestGraphRun_FailFastAfterAllToolsErrorInARound(t *testing.T) {
	r := tools.NewRegistry()
	r.Register("aws.s3_bucket_location", false, func(ctx context.Context, inv *tools.Invocation, args map[string]any) tools.Result {
		return tools.Result{OK: false, Error: "tool_exception:boom"}
	})

	fake := &fakeLLM{
		plans: []llm.StructuredResult{
			{Text: mustJSON(t, map[string]any{"tool_calls": []map[string]any{
				{"tool": "aws.s3_bucket_location", "args": map[string]any{}},
			}})},
			// A second plan round would be scripted here; fail-fast must stop
			// before it is ever consumed.
			{Text: mustJSON(t, map[string]any{"tool_calls": []map[string]any{
				{"tool": "aws.s3_bucket_location", "args": map[string]any{"retry": true}},
			}})},
		},
		respond: llm.StructuredResult{Text: "I couldn't verify that due to a tool error."},
	}
	g := NewGraph(fake, tools.NewExecutor(r, nil, false), r, DefaultBudget)

	turn := g.Run(context.Background(), Context{Mode: ModeCase}, "check the bucket", nil, []string{"aws.s3_bucket_location"})

	require.Len(t, turn.ToolEvents, 1, "fail-fast must stop after the first all-error round, never a second plan")
	assert.Equal(t, "I couldn't verify that due to a tool error.", turn.Reply)
	assert.Len(t, fake.plans, 1, "the second scripted plan must never be consumed")
}

func TestGraphRunStream_EmitsInitThroughDone(t *testing.T) {
	fake := &fakeLLM{
		plans:   []llm.StructuredResult{{Text: `{"tool_calls":[]}`}},
		respond: llm.StructuredResult{Text: "All good."},
	}
	g := NewGraph(fake, tools.NewExecutor(tools.NewRegistry(), nil, false), tools.NewRegistry(), DefaultBudget)

	events := g.RunStream(context.Background(), Context{Mode: ModeGlobal}, "status?", nil, nil)

	var kinds []SSEKind
	var lastReply string
	for ev := range events {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == SSEDone {
			lastReply = ev.Data.(doneData).Reply
		}
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, SSEInit, kinds[0])
	assert.Equal(t, SSEDone, kinds[len(kinds)-1])
	assert.Equal(t, "All good.", lastReply)
}
