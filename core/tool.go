package core

import (
	"context"
	"encoding/json"
)

// Tool is one capability exposed to the response agent's oracle.
// Implementations may have arbitrary side effects outside this system's
// control (sending an email, hitting an API); their result is consumed
// as an observation string in the conversation.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, params *ToolParams) (*ToolResult, error)
}

// ToolParams carries the execution context for one tool invocation.
type ToolParams struct {
	// UserID is the identity the current run acts for. Memory-backed
	// tools derive their namespace from it.
	UserID string

	// Input is the raw JSON input the oracle supplied.
	Input json.RawMessage

	// RequestID identifies the orchestration run for correlation.
	RequestID string
}

// ToolResult is the outcome of a tool execution.
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ToolDefinition declares a tool's name, description, and input schema
// without binding an implementation.
type ToolDefinition struct {
	ToolName        string
	ToolDescription string
	InputSchema     map[string]interface{}
}

// ExecuteRequest is the payload handed to a ToolExecutor.
type ExecuteRequest struct {
	UserID    string
	Tool      string
	Input     json.RawMessage
	RequestID string
}

// ToolExecutor performs domain actions on behalf of tools. Concrete
// implementations (SMTP sender, calendar client, HTTP backend) live
// outside this SDK.
type ToolExecutor interface {
	Execute(ctx context.Context, req *ExecuteRequest) (*ToolResult, error)
}

// executorTool adapts a ToolDefinition plus a ToolExecutor into a Tool.
type executorTool struct {
	def      ToolDefinition
	executor ToolExecutor
}

// NewExecutorTool binds a tool definition to an executor.
func NewExecutorTool(def ToolDefinition, executor ToolExecutor) Tool {
	return &executorTool{def: def, executor: executor}
}

func (t *executorTool) Name() string                        { return t.def.ToolName }
func (t *executorTool) Description() string                 { return t.def.ToolDescription }
func (t *executorTool) InputSchema() map[string]interface{} { return t.def.InputSchema }

func (t *executorTool) Execute(ctx context.Context, params *ToolParams) (*ToolResult, error) {
	return t.executor.Execute(ctx, &ExecuteRequest{
		UserID:    params.UserID,
		Tool:      t.def.ToolName,
		Input:     params.Input,
		RequestID: params.RequestID,
	})
}
