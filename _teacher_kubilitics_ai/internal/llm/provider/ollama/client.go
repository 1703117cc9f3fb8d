package ollama

import "context"

// Package ollama provides Ollama provider implementation for LLM adapter.
//
// Responsibilities:
//   - Implement LLM adapter interface for Ollama API
//   - Support any Ollama-hosted model (llama3, mistral, codellama, neural-chat, etc.)
//   - Handle Ollama generate and chat API calls
//   - Approximate token counting (Ollama doesn't expose tokenizer)
//   - Cost tracking (zero cost, runs on user's machine)
//   - Error handling and connection management
//   - Model-specific configuration
//
// Key Advantage:
//   - Zero cost - runs entirely on user's machine
//   - Complete privacy - no data sent to external services
//   - Can use smaller models effectively
//
// Supported Models (examples, any Ollama model works):
//   - llama3: 7B/70B, general purpose, good reasoning
//   - mistral: 7B, fast, lightweight
//   - neural-chat: 7B, optimized for conversation
//   - codellama: 7B/13B/34B, code generation and reasoning
//   - openhermes: 2.5 model, instruction-following
//   - dolphin-mixtral: High quality, larger context
//
// Configuration:
//   - OLLAMA_BASE_URL: Required. URL to Ollama instance (defaults to http://localhost:11434)
//   - OLLAMA_MODEL: Required. Model name to use
//   - OLLAMA_TEMPERATURE: Optional. Sampling temperature (0.0-2.0)
//   - OLLAMA_NUM_PREDICT: Optional. Maximum tokens in response
//   - OLLAMA_NUM_THREADS: Optional. CPU threads to use
//
// Token Counting:
//   - Ollama doesn't expose tokenizer
//   - Approximate using char-to-token ratio (1 token ≈ 4 characters)
//   - Less accurate than OpenAI/Anthropic, but sufficient for budgeting
//
// Function Calling Support:
//   - Many Ollama models support function calling
//   - Format typically matches OpenAI format (function calling)
//   - Some models may not support tool calling (graceful degradation)
//
// Integration Points:
//   - LLM Adapter: Implements adapter interface
//   - Budget Tracker: Reports token usage (zero cost)
//   - Reasoning Engine: Calls Complete/CompleteStream
//   - MCP Server: Receives tool calls from LLM (if supported by model)

// OllamaClient implements the LLM adapter interface for Ollama.
type OllamaClient struct {
	// baseURL is the URL to the Ollama instance
	baseURL string

	// model is the Ollama model name
	model string

	// temperature is the sampling temperature
	temperature float32

	// maxTokens is the maximum tokens in response
	maxTokens int

	// supportsToolCalling indicates if model supports function calling
	supportsToolCalling bool
}

// NewOllamaClient creates a new Ollama client with configuration.
func NewOllamaClient() *OllamaClient {
	// Load configuration from env vars and files
	// Verify Ollama instance is reachable
	// Probe model to determine capabilities
	// Create HTTP client for Ollama API
	return nil
}

// Complete implements LLMAdapter.Complete for Ollama API.
func (c *OllamaClient) Complete(ctx context.Context, messages []interface{}, tools []interface{}) (string, []interface{}, error) {
	// Build Ollama chat request
	// If model doesn't support tool calling, return tools unsupported error
	// Call Ollama API
	// Parse response (text + optional tool calls)
	// No token tracking (zero cost)
	return "", nil, nil
}

// CompleteStream implements LLMAdapter.CompleteStream for Ollama API.
func (c *OllamaClient) CompleteStream(ctx context.Context, messages []interface{}, tools []interface{}) (chan string, chan interface{}, error) {
	// Build Ollama chat request with stream=true
	// Set up streaming response parsing
	// Return channels for tokens and tool calls
	// Handle backpressure and context cancellation
	return nil, nil, nil
}

// CountTokens approximates token count using char-to-token ratio.
func (c *OllamaClient) CountTokens(ctx context.Context, messages []interface{}, tools []interface{}) (int, error) {
	// Calculate approximate tokens: content_length / 4
	// Add overhead for tool definitions
	// Return estimated count
	return 0, nil
}

// GetCapabilities returns Ollama model capabilities.
func (c *OllamaClient) GetCapabilities(ctx context.Context) (interface{}, error) {
	// Return capabilities map
	// streaming: true
	// function_calling: depends on model (probe during init)
	// max_tokens: from model config
	// cost_per_1k_input: 0 (runs locally)
	// cost_per_1k_output: 0 (runs locally)
	return nil, nil
}

// ValidateToolCall validates tool call against schema.
func (c *OllamaClient) ValidateToolCall(ctx context.Context, toolName string, args interface{}) error {
	// Validate tool_name matches registered tools
	// Validate arguments against schema
	return nil
}

// NormalizeToolCall converts Ollama tool call format to standard format.
func (c *OllamaClient) NormalizeToolCall(ctx context.Context, toolCall interface{}) (map[string]interface{}, error) {
	// Extract tool information from Ollama response
	// Convert to standard format
	return nil, nil
}
