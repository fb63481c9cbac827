package llm

import "encoding/json"

// charsPerToken is a rough average; real tokenizers vary.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string, rounded up.
func EstimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// PromptSize is an estimated token breakdown of one chat request. Tool
// results dominate report prompts, so they are counted apart from the rest.
type PromptSize struct {
	Conversation int // system, user and assistant messages
	ToolResults  int
	Schemas      int // tool definitions
}

func (p PromptSize) Total() int { return p.Conversation + p.ToolResults + p.Schemas }

// MeasurePrompt estimates the size of a request built from messages and tools.
func MeasurePrompt(messages []Message, tools []Tool) PromptSize {
	var p PromptSize
	for _, m := range messages {
		n := messageTokens(m)
		if m.Role == RoleTool {
			p.ToolResults += n
		} else {
			p.Conversation += n
		}
	}
	for _, t := range tools {
		p.Schemas += 10 + EstimateTokens(t.Name) + EstimateTokens(t.Description)
		if schema, err := json.Marshal(t.Parameters); err == nil {
			p.Schemas += EstimateTokens(string(schema))
		}
	}
	return p
}

// messageTokens includes a fixed overhead for role and framing.
func messageTokens(m Message) int {
	n := 4 + EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		n += 4 + EstimateTokens(tc.Name) + EstimateTokens(tc.Arguments)
	}
	if m.ToolCallID != "" {
		n += 2 + EstimateTokens(m.ToolCallID)
	}
	return n
}
