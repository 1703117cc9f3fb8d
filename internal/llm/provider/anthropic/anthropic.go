// Package anthropic implements internal/llm.Client against Anthropic's
// Messages API via the official anthropics/anthropic-sdk-go, grounded on
// the *shape* of the teacher's hand-rolled provider
// (kubilitics-ai/internal/llm/provider/anthropic/client_impl.go: system
// message extracted to a top-level field, tool_use content blocks,
// content_block_delta streaming, one client per model) while replacing its
// raw net/http + bufio SSE scanning with the real SDK's typed request/
// response and ssestream.Stream, per SPEC_FULL.md §4.12's domain-stack
// wiring table.
//
// Structured-JSON generation (internal/llm.Client.GenerateStructured) with
// no explicit Tools is implemented as a single tool-forced call: a
// synthetic "emit_structured_output" tool whose input_schema is the
// caller's JSON Schema, with tool_choice pinned to it, so the model's
// reply is always the tool_use input rather than free text — the same
// "structured JSON via tool-forced calls" technique named in
// SPEC_FULL.md's domain-stack table.
package anthropic

import (
	"context"
	"encoding/json"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/llm"
)

const (
	DefaultModel       = anthropic.ModelClaudeSonnet4_5
	DefaultMaxTokens   = 4096
	structuredToolName = "emit_structured_output"
)

// Provider implements llm.Client over the Anthropic Messages API.
type Provider struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// New builds a Provider. apiKey falls back to ANTHROPIC_API_KEY; model
// falls back to DefaultModel. Returns errors.CodeMissingAPIKey when no key
// is available anywhere.
func New(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, tarkaerrors.New(tarkaerrors.CodeMissingAPIKey)
	}
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}
	return &Provider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     m,
		maxTokens: DefaultMaxTokens,
	}, nil
}

func (p *Provider) buildParams(req llm.StructuredRequest) (anthropic.MessageNewParams, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages:  convertMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	switch {
	case len(req.Tools) > 0:
		params.Tools = convertTools(req.Tools)
	case req.Schema != nil:
		schemaTool := anthropic.ToolParam{
			Name:        structuredToolName,
			Description: anthropic.String("Emit the final structured response matching the required schema."),
			InputSchema: schemaToInputSchema(req.Schema),
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: &schemaTool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: structuredToolName},
		}
	}
	return params, nil
}

// GenerateStructured performs one blocking turn. When the model replies
// with tool_use blocks, ToolCalls is populated; when req.Schema forced the
// synthetic emit_structured_output tool, its input JSON is also copied
// into Text so callers that only inspect Text still see the structured
// payload.
func (p *Provider) GenerateStructured(ctx context.Context, req llm.StructuredRequest) (llm.StructuredResult, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return llm.StructuredResult{}, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return llm.StructuredResult{}, classifyErr(err, string(p.model))
	}

	var result llm.StructuredResult
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(variant.Input, &args)
			if variant.Name == structuredToolName {
				result.Text = string(variant.Input)
				continue
			}
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			})
		}
	}
	return result, nil
}

// StreamTokens streams a turn, forwarding text_delta events as
// llm.StreamToken and thinking_delta events as llm.StreamThinking (spec.md
// §4.9 "honor any native thinking segments by forwarding them as thinking
// events").
func (p *Provider) StreamTokens(ctx context.Context, req llm.StructuredRequest) (<-chan llm.StreamEvent, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	out := make(chan llm.StreamEvent, 32)
	stream := p.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text != "" {
						select {
						case out <- llm.StreamEvent{Kind: llm.StreamToken, Text: delta.Text}:
						case <-ctx.Done():
							return
						}
					}
				case anthropic.ThinkingDelta:
					if delta.Thinking != "" {
						select {
						case out <- llm.StreamEvent{Kind: llm.StreamThinking, Text: delta.Thinking}:
						case <-ctx.Done():
							return
						}
					}
				}
			case anthropic.MessageStopEvent:
				select {
				case out <- llm.StreamEvent{Kind: llm.StreamDone}:
				case <-ctx.Done():
				}
				return
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- llm.StreamEvent{Kind: llm.StreamDone, Text: classifyErr(err, string(p.model)).Error()}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func convertMessages(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}
	return out
}

func convertTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schemaToInputSchema(t.Parameters),
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out
}

func schemaToInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	props, _ := schema["properties"].(map[string]any)
	s := anthropic.ToolInputSchemaParam{Properties: props}
	if req, ok := schema["required"].([]string); ok {
		reqAny := make([]any, len(req))
		for i, r := range req {
			reqAny[i] = r
		}
		s.ExtraFields = map[string]any{"required": reqAny}
	}
	return s
}

// classifyErr maps SDK errors into the stable-code taxonomy spec.md §7
// requires at every boundary the core exposes.
func classifyErr(err error, model string) error {
	if err == nil {
		return nil
	}
	var apiErr *anthropic.Error
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.StatusCode {
		case 401:
			return tarkaerrors.Wrap(tarkaerrors.CodeUnauthenticated, err)
		case 403:
			return tarkaerrors.Wrap(tarkaerrors.CodePermissionDenied, err)
		case 404:
			return tarkaerrors.Wrap(tarkaerrors.ModelNotFound(model), err)
		}
	}
	return tarkaerrors.Wrap(tarkaerrors.ToolException("anthropic", err.Error()), err)
}

func asAPIError(err error, target **anthropic.Error) bool {
	type asser interface{ As(any) bool }
	if a, ok := err.(asser); ok {
		return a.As(target)
	}
	return false
}
