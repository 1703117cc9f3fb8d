// Package llm defines the structured-JSON-generation and token-streaming
// contracts C8/C9 depend on (spec.md §1 "an LLM client exposing
// structured-JSON generation and token streaming"), plus the versioned
// prompt catalog (spec.md §4.10: tarka.tool_plan.v1, tarka.rca.v1,
// tarka.enrich.v1). Grounded on the teacher's llm/types.Message/Tool shape
// (kubilitics-ai/internal/llm/types/types.go) — kept provider-agnostic so
// internal/rca and internal/chat never import an SDK type directly.
package llm

import "context"

// Role is a chat-turn author, matching the teacher's types.Message.Role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in a conversation sent to the model.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on Role=tool: which tool_use this result answers
	ToolName   string // set on Role=tool
}

// Tool describes one callable tool in JSON-Schema form, matching the
// teacher's types.Tool shape.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// ToolCall is one tool invocation the model requested.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// StructuredRequest asks the model to either call one of Tools (if any are
// supplied) or to emit JSON conforming to Schema directly, per spec.md
// §4.10: "All LLM calls are JSON-structured". PromptVersion is one of the
// catalog ids in prompts.go, recorded for tracing.
type StructuredRequest struct {
	PromptVersion string
	System        string
	Messages      []Message
	Tools         []Tool
	Schema        map[string]any // JSON Schema the final text must satisfy when Tools is empty
	MaxTokens     int
}

// StructuredResult is a generation turn's outcome: Text/JSON when the model
// replied directly, or ToolCalls (at most a handful) when it chose to call
// tools instead.
type StructuredResult struct {
	Text      string
	ToolCalls []ToolCall
}

// StreamEventKind enumerates the token-stream event types C9 forwards as
// SSE events (spec.md §4.9 "token events", "thinking segments").
type StreamEventKind string

const (
	StreamToken    StreamEventKind = "token"
	StreamThinking StreamEventKind = "thinking"
	StreamDone     StreamEventKind = "done"
)

// StreamEvent is one token or thinking-segment chunk from a streaming turn.
type StreamEvent struct {
	Kind StreamEventKind
	Text string
}

// Client is the structured-JSON + streaming contract the core depends on.
// Implementations MUST NOT raise to callers for remote failures; wrap them
// in the internal/errors stable-code taxonomy (model_not_found:<id>,
// sdk_import_failed:<name>) per spec.md §7.
type Client interface {
	// GenerateStructured performs one blocking, non-streaming turn used by
	// C8's plan/synth nodes and C9's fast-path/plan stage.
	GenerateStructured(ctx context.Context, req StructuredRequest) (StructuredResult, error)
	// StreamTokens performs a streaming turn for C9's respond stage. The
	// returned channel is closed when the turn completes or ctx is done;
	// it is not restartable.
	StreamTokens(ctx context.Context, req StructuredRequest) (<-chan StreamEvent, error)
}
