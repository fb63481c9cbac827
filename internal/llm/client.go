package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Role is the message role used in chat exchanges.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a conversation. Empty fields are dropped on
// encode, so an assistant reply without tool calls carries no tool_calls key.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

// ToolCall is a model-issued request; Arguments is the raw JSON object text.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Message converts the response into the assistant message appended to a conversation.
func (r *Response) Message() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls}
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

type Client interface {
	Provider() string
	Chat(ctx context.Context, model string, messages []Message, tools []Tool) (*Response, error)
}

// APIError is a non-2xx answer from a provider, with the headers needed
// for rate-limit bookkeeping.
type APIError struct {
	Provider   string
	StatusCode int
	Header     http.Header
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
