// Package engine runs the bounded tool-use loop that drafts and sends
// email replies.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/oracle"
)

// Config holds engine configuration.
type Config struct {
	// MaxTurns caps how many oracle turns a single run may consume.
	// A run that has not finished by then is reported as stalled.
	MaxTurns int
}

// DefaultConfig provides sensible defaults for the engine.
var DefaultConfig = &Config{
	MaxTurns: 10,
}

// Engine drives an agent run: it alternates oracle turns with tool
// executions until the oracle replies without requesting a tool, or
// the turn cap is reached.
type Engine struct {
	oracle   oracle.Completer
	registry *Registry
	config   *Config
}

// Option configures the engine.
type Option func(*Engine)

// WithConfig overrides the default engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// NewEngine creates an engine backed by the given oracle and registry.
func NewEngine(completer oracle.Completer, registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		oracle:   completer,
		registry: registry,
		config:   DefaultConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's tool registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Input is one agent run request.
type Input struct {
	// UserID identifies whose mailbox and memory the run acts on.
	UserID string

	// SystemPrompt is the rendered response prompt for this run.
	// Empty selects DefaultSystemPrompt.
	SystemPrompt string

	// History seeds the transcript. The engine appends to it and never
	// rewrites entries already present.
	History []core.Message

	// RunID correlates log lines and tool requests. Empty generates
	// a fresh one.
	RunID string
}

// OutputType indicates how an agent run ended.
type OutputType int

const (
	// OutputComplete indicates the oracle finished with a plain reply.
	OutputComplete OutputType = iota

	// OutputStalled indicates the turn cap was reached before a plain
	// reply. The transcript up to that point is preserved.
	OutputStalled

	// OutputError indicates the run failed.
	OutputError
)

// Output is the result of an agent run.
type Output struct {
	// Type indicates the kind of output.
	Type OutputType

	// Text is the oracle's final reply, or its last text before the
	// run stalled.
	Text string

	// Messages is the full transcript, including the seeded history.
	Messages []core.Message

	// ToolsUsed records tool names in invocation order.
	ToolsUsed []string

	// Err is set when Type is OutputError.
	Err error
}

// Run executes the agent loop. Tool failures are fed back to the
// oracle as error observations rather than terminating the run; only
// oracle transport failures and context cancellation end it early.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	runID := input.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	systemPrompt := input.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	messages := make([]core.Message, len(input.History))
	copy(messages, input.History)

	specs := e.registry.Specs()
	var toolsUsed []string
	var lastText string

	for turn := 0; turn < e.config.MaxTurns; turn++ {
		if ctx.Err() != nil {
			return &Output{
				Type:      OutputError,
				Messages:  messages,
				ToolsUsed: toolsUsed,
				Err:       fmt.Errorf("run %s cancelled: %w", runID, ctx.Err()),
			}, nil
		}

		result, err := e.oracle.Converse(ctx, systemPrompt, messages, specs)
		if err != nil {
			return &Output{
				Type:      OutputError,
				Messages:  messages,
				ToolsUsed: toolsUsed,
				Err:       fmt.Errorf("run %s: oracle turn failed: %w", runID, err),
			}, nil
		}

		if result.Reply != "" {
			lastText = result.Reply
		}

		if result.ToolCall == nil {
			messages = append(messages, core.AssistantMessage(result.Reply))
			log.Printf("[ENGINE] run=%s complete after %d turn(s)", runID, turn+1)
			return &Output{
				Type:      OutputComplete,
				Text:      result.Reply,
				Messages:  messages,
				ToolsUsed: toolsUsed,
			}, nil
		}

		call := result.ToolCall
		if call.ID == "" {
			call.ID = uuid.New().String()
		}

		messages = append(messages, core.Message{
			Role:     core.RoleAssistant,
			Content:  result.Reply,
			ToolCall: call,
		})

		observation := e.dispatch(ctx, input.UserID, runID, call)
		messages = append(messages, core.ObservationMessage(call.ID, observation.Content, observation.IsError))
		toolsUsed = append(toolsUsed, call.Name)
	}

	log.Printf("[ENGINE] run=%s stalled at %d turns", runID, e.config.MaxTurns)
	return &Output{
		Type:      OutputStalled,
		Text:      lastText,
		Messages:  messages,
		ToolsUsed: toolsUsed,
	}, nil
}

// dispatch executes one tool call. Every failure mode becomes an error
// observation so the oracle can recover within the run.
func (e *Engine) dispatch(ctx context.Context, userID, runID string, call *core.ToolCall) core.ToolObservation {
	tool, ok := e.registry.Get(call.Name)
	if !ok {
		log.Printf("[ENGINE] run=%s unknown tool %q", runID, call.Name)
		return core.ToolObservation{
			CallID:  call.ID,
			Content: fmt.Sprintf("unknown tool: %s", call.Name),
			IsError: true,
		}
	}

	result, err := tool.Execute(ctx, &core.ToolParams{
		UserID:    userID,
		Input:     call.Input,
		RequestID: runID,
	})

	return core.ToolObservation{
		CallID:  call.ID,
		Content: formatObservation(result, err),
		IsError: err != nil || result == nil || !result.Success,
	}
}

// formatObservation renders a tool outcome as text for the oracle.
func formatObservation(result *core.ToolResult, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %s", err.Error())
	}
	if result == nil {
		return "No result returned"
	}
	if !result.Success {
		return fmt.Sprintf("Failed: %s", result.Error)
	}

	switch v := result.Data.(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		bytes, _ := json.Marshal(v)
		return string(bytes)
	case string:
		return v
	default:
		return fmt.Sprintf("Success: %v", v)
	}
}

// DefaultSystemPrompt is the built-in response prompt used until the
// optimizer writes a user-specific one. Placeholders are filled with
// the triggering email before each run.
const DefaultSystemPrompt = `You are an email assistant acting on the user's behalf. An email arrived that needs a reply:

From: {{.from}}
Subject: {{.subject}}
Body: {{.body}}

GUIDELINES:
- Draft a reply in the user's voice: concise, polite, and direct
- Check the calendar before agreeing to any meeting time
- Search stored facts when the reply may depend on remembered context
- Store any durable new fact the email reveals
- Send the reply with send_email once it is ready

Finish by summarizing what you did.`
