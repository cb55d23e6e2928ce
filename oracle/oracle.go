// Package oracle defines the boundary to the generative-completion
// oracle. The orchestration engine treats the oracle as a black box
// with possible transient failure; the claude subpackage provides the
// Anthropic-backed implementation.
package oracle

import (
	"context"

	"github.com/getdrafty/drafty-go-sdk/core"
)

// ClassifyResult is the oracle's triage decision: one of the three
// labels plus a free-text rationale.
type ClassifyResult struct {
	Label     core.Classification `json:"label"`
	Rationale string              `json:"rationale"`
}

// ToolSpec describes one tool made available to Converse.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// Turn is the closed variant the oracle returns from one Converse step:
// either a final reply or a tool invocation. When ToolCall is non-nil
// the turn is a tool invocation and Reply holds any preamble text the
// oracle produced alongside it.
type Turn struct {
	Reply    string
	ToolCall *core.ToolCall
}

// Trajectory is a recorded conversation annotated with feedback, used
// as optimizer input.
type Trajectory struct {
	Messages []core.Message
	Feedback string
}

// Completer is the completion oracle.
type Completer interface {
	// Classify asks for exactly one of the three triage labels plus a
	// rationale for the fully rendered prompt.
	Classify(ctx context.Context, prompt string) (*ClassifyResult, error)

	// Converse runs one think/act step: given the system prompt, the
	// conversation so far, and the available tools, the oracle proposes
	// either a final reply or one tool call.
	Converse(ctx context.Context, systemPrompt string, history []core.Message, tools []ToolSpec) (*Turn, error)

	// Optimize rewrites the named prompts in light of the trajectories
	// and their feedback annotations. The result must contain a revised
	// prompt for every input name.
	Optimize(ctx context.Context, prompts map[string]string, trajectories []Trajectory) (map[string]string, error)
}
