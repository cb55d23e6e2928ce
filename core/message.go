package core

import "encoding/json"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleTool marks an observation produced by executing a tool call.
	RoleTool Role = "tool"
)

// ToolCall is a request by the oracle to invoke one named tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolObservation is the recorded result of executing a tool call.
type ToolObservation struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one entry in a conversation history. Histories are
// append-only and are never reordered or pruned.
//
// An assistant message may carry text, a tool call, or both (text as
// preamble to the call). A RoleTool message carries only ToolResult.
type Message struct {
	Role       Role             `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCall   *ToolCall        `json:"tool_call,omitempty"`
	ToolResult *ToolObservation `json:"tool_result,omitempty"`
}

// UserMessage builds a plain user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds a plain assistant text message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ObservationMessage builds a tool observation message for a call.
func ObservationMessage(callID, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		ToolResult: &ToolObservation{CallID: callID, Content: content, IsError: isError},
	}
}
