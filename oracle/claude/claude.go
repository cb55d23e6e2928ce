// Package claude implements the completion oracle on the Anthropic
// Messages API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/oracle"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096

	classifyToolName = "classify_email"
)

// Config configures the Claude oracle.
type Config struct {
	// APIKey is the Anthropic API key.
	APIKey string

	// Model is the Claude model to use. Defaults to a Sonnet model.
	Model string

	// MaxTokens is the maximum response tokens per call.
	MaxTokens int64
}

// Oracle is the Anthropic-backed Completer.
type Oracle struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// New creates a Claude oracle.
func New(cfg Config) *Oracle {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Oracle{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Classify forces a tool call whose schema constrains the label to the
// three-value enum, then parses the structured input back out.
func (o *Oracle) Classify(ctx context.Context, prompt string) (*oracle.ClassifyResult, error) {
	classifyTool := anthropic.ToolParam{
		Name:        classifyToolName,
		Description: anthropic.String("Record the triage decision for the email."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]interface{}{
				"label": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"ignore", "notify", "respond"},
					"description": "The triage classification for the email.",
				},
				"rationale": map[string]interface{}{
					"type":        "string",
					"description": "Short explanation of the decision.",
				},
			},
			Required: []string{"label", "rationale"},
		},
	}

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: &classifyTool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: classifyToolName},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude classify: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != classifyToolName {
			continue
		}
		var decision struct {
			Label     string `json:"label"`
			Rationale string `json:"rationale"`
		}
		if err := json.Unmarshal(block.Input, &decision); err != nil {
			return nil, fmt.Errorf("claude classify: parse decision: %w", err)
		}
		label, err := core.ParseClassification(decision.Label)
		if err != nil {
			return nil, fmt.Errorf("claude classify: %w", err)
		}
		return &oracle.ClassifyResult{Label: label, Rationale: decision.Rationale}, nil
	}

	return nil, fmt.Errorf("claude classify: no %s tool call in response", classifyToolName)
}

// Converse runs one Messages call and returns either the first tool
// call or the accumulated text as a final reply.
func (o *Oracle) Converse(ctx context.Context, systemPrompt string, history []core.Message, tools []oracle.ToolSpec) (*oracle.Turn, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		Messages:  toAPIMessages(history),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if len(tools) > 0 {
		params.Tools = toAPITools(tools)
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude converse: %w", err)
	}

	turn := &oracle.Turn{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			turn.Reply += block.Text
		case "tool_use":
			if turn.ToolCall == nil {
				turn.ToolCall = &core.ToolCall{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				}
			}
		}
	}
	return turn, nil
}

// Optimize submits the trajectories and current prompts and expects a
// JSON object mapping each prompt name to its revised text.
func (o *Oracle) Optimize(ctx context.Context, prompts map[string]string, trajectories []oracle.Trajectory) (map[string]string, error) {
	prompt := buildOptimizePrompt(prompts, trajectories)

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude optimize: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	revised, err := parseRevisedPrompts(text)
	if err != nil {
		return nil, fmt.Errorf("claude optimize: %w", err)
	}

	// An incomplete prompt set is an oracle failure: the caller falls
	// back rather than partially applying it.
	for name := range prompts {
		if strings.TrimSpace(revised[name]) == "" {
			return nil, fmt.Errorf("claude optimize: missing revised prompt %q", name)
		}
	}
	return revised, nil
}

func buildOptimizePrompt(prompts map[string]string, trajectories []oracle.Trajectory) string {
	var b strings.Builder
	b.WriteString("You are improving the instruction prompts of an email assistant based on user feedback.\n\n")

	for _, tr := range trajectories {
		b.WriteString("CONVERSATION:\n")
		for _, m := range tr.Messages {
			switch {
			case m.ToolCall != nil:
				fmt.Fprintf(&b, "%s -> tool %s(%s)\n", m.Role, m.ToolCall.Name, string(m.ToolCall.Input))
			case m.ToolResult != nil:
				fmt.Fprintf(&b, "tool result: %s\n", m.ToolResult.Content)
			default:
				fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
			}
		}
		fmt.Fprintf(&b, "\nUSER FEEDBACK: %s\n\n", tr.Feedback)
	}

	b.WriteString("CURRENT PROMPTS:\n")
	for name, text := range prompts {
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", name, text)
	}

	b.WriteString("Rewrite each prompt so future runs honor the feedback, keeping everything that already works. ")
	b.WriteString("Keep every template placeholder (the {{.name}} fields) intact. ")
	b.WriteString("Respond with a single JSON object whose keys are exactly the prompt names and whose values are the full revised prompt texts. No other output.")
	return b.String()
}

// parseRevisedPrompts extracts the JSON object from the oracle's text.
func parseRevisedPrompts(text string) (map[string]string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var revised map[string]string
	if err := json.Unmarshal([]byte(text[start:end+1]), &revised); err != nil {
		return nil, fmt.Errorf("parse revised prompts: %w", err)
	}
	return revised, nil
}

// toAPIMessages converts conversation history to Anthropic messages.
// Tool observations travel back as user-role tool_result blocks, per
// the Messages API contract.
func toAPIMessages(history []core.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case core.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			if m.ToolCall != nil {
				blocks = append(blocks, anthropic.NewToolUseBlock(m.ToolCall.ID, m.ToolCall.Input, m.ToolCall.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}

		case core.RoleTool:
			if m.ToolResult != nil {
				messages = append(messages, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(m.ToolResult.CallID, m.ToolResult.Content, m.ToolResult.IsError),
				))
			}
		}
	}
	return messages
}

func toAPITools(tools []oracle.ToolSpec) []anthropic.ToolUnionParam {
	apiTools := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, spec := range tools {
		properties := spec.InputSchema["properties"]
		required := requiredFields(spec.InputSchema["required"])
		apiTools = append(apiTools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return apiTools
}

// requiredFields extracts a schema's required list, which arrives as
// []string from the schema helpers but as []interface{} when the schema
// was decoded from JSON.
func requiredFields(value interface{}) []string {
	switch r := value.(type) {
	case []string:
		return r
	case []interface{}:
		required := make([]string, 0, len(r))
		for _, field := range r {
			if name, ok := field.(string); ok {
				required = append(required, name)
			}
		}
		return required
	default:
		return nil
	}
}
