// Package orchestrator wires triage, the response engine, and the
// optimizer into the per-email workflow.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"text/template"

	"github.com/google/uuid"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/engine"
	"github.com/getdrafty/drafty-go-sdk/memory"
	"github.com/getdrafty/drafty-go-sdk/optimizer"
	"github.com/getdrafty/drafty-go-sdk/oracle"
	"github.com/getdrafty/drafty-go-sdk/tools"
	"github.com/getdrafty/drafty-go-sdk/triage"
)

// Orchestrator runs the full workflow for one assistant deployment:
// classify each email, draft replies where warranted, accumulate
// memory, and fold feedback back into the stored prompts.
type Orchestrator struct {
	store      memory.Store
	classifier *triage.Classifier
	engine     *engine.Engine
	optimizer  *optimizer.Optimizer
}

// Option configures the orchestrator.
type Option func(*options)

type options struct {
	triageConfig *triage.Config
	engineConfig *engine.Config
	extraTools   []core.Tool
}

// WithTriageConfig overrides the default triage configuration.
func WithTriageConfig(config *triage.Config) Option {
	return func(o *options) {
		o.triageConfig = config
	}
}

// WithEngineConfig overrides the default engine configuration.
func WithEngineConfig(config *engine.Config) Option {
	return func(o *options) {
		o.engineConfig = config
	}
}

// WithTools registers additional tools alongside the standard inbox
// and memory tools.
func WithTools(extra ...core.Tool) Option {
	return func(o *options) {
		o.extraTools = append(o.extraTools, extra...)
	}
}

// New creates an orchestrator. The executor owns the inbox side
// effects (sending mail, reading the calendar); memory tools are wired
// to the store automatically.
func New(store memory.Store, completer oracle.Completer, executor core.ToolExecutor, opts ...Option) *Orchestrator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	registry := engine.NewRegistry()
	for _, tool := range tools.InboxTools(executor) {
		registry.Register(tool)
	}
	for _, tool := range tools.MemoryTools(store) {
		registry.Register(tool)
	}
	for _, tool := range o.extraTools {
		registry.Register(tool)
	}

	var engineOpts []engine.Option
	if o.engineConfig != nil {
		engineOpts = append(engineOpts, engine.WithConfig(o.engineConfig))
	}

	return &Orchestrator{
		store:      store,
		classifier: triage.NewClassifier(store, completer, o.triageConfig),
		engine:     engine.NewEngine(completer, registry, engineOpts...),
		optimizer:  optimizer.New(store, completer),
	}
}

// RunResult is the outcome of processing one email.
type RunResult struct {
	// RunID correlates this result with log lines and tool requests.
	RunID string

	// Classification is the triage label the email received.
	Classification core.Classification

	// Rationale is the oracle's explanation for the label.
	Rationale string

	// Reply is the agent's final text when the email was responded to.
	Reply string

	// Transcript is the full agent conversation for respond runs, nil
	// otherwise.
	Transcript []core.Message

	// ToolsUsed records tool names in invocation order.
	ToolsUsed []string

	// Stalled is set when the response run hit its turn cap before the
	// agent finished.
	Stalled bool
}

// ProcessEmail classifies the email and, when warranted, runs the
// response agent. Ignore and notify runs never touch the oracle beyond
// classification and never write memory.
func (o *Orchestrator) ProcessEmail(ctx context.Context, userID string, email core.Email) (*RunResult, error) {
	runID := uuid.New().String()
	log.Printf("[ORCH] run=%s user=%s from=%s subject=%q", runID, userID, email.From, email.Subject)

	decision, err := o.classifier.Classify(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("run %s for user %s: %w", runID, userID, err)
	}

	result := &RunResult{
		RunID:          runID,
		Classification: decision.Label,
		Rationale:      decision.Rationale,
	}

	if NextState(decision.Label) != StateRespond {
		log.Printf("[ORCH] run=%s label=%s, no response needed", runID, decision.Label)
		return result, nil
	}

	systemPrompt, err := o.responsePrompt(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("run %s for user %s: %w", runID, userID, err)
	}

	output, err := o.engine.Run(ctx, &engine.Input{
		UserID:       userID,
		SystemPrompt: systemPrompt,
		History:      []core.Message{core.UserMessage(email.Render())},
		RunID:        runID,
	})
	if err != nil {
		return nil, fmt.Errorf("run %s for user %s: %w", runID, userID, err)
	}
	if output.Type == engine.OutputError {
		return nil, fmt.Errorf("run %s for user %s: %w", runID, userID, output.Err)
	}

	result.Reply = output.Text
	result.Transcript = output.Messages
	result.ToolsUsed = output.ToolsUsed
	result.Stalled = output.Type == engine.OutputStalled
	return result, nil
}

// AddExample stores one labeled email in the user's episodic memory
// and returns its key. Examples are append-only; corrections are new
// examples, not edits.
func (o *Orchestrator) AddExample(ctx context.Context, userID string, example core.Example) (string, error) {
	if !example.Label.Valid() {
		return "", fmt.Errorf("add example for user %s: invalid label %q", userID, example.Label)
	}

	key := uuid.New().String()
	ns := memory.ExamplesNamespace(userID)
	if err := o.store.Put(ctx, ns, key, example); err != nil {
		return "", fmt.Errorf("add example for user %s: %w", userID, err)
	}
	log.Printf("[ORCH] user=%s stored example %s label=%s", userID, key, example.Label)
	return key, nil
}

// Optimize folds user feedback on a past run into the stored prompts.
func (o *Orchestrator) Optimize(ctx context.Context, userID, feedback string, transcript []core.Message) error {
	return o.optimizer.Optimize(ctx, userID, feedback, transcript)
}

// responsePrompt renders the user's stored response prompt (or the
// default) with the triggering email's fields.
func (o *Orchestrator) responsePrompt(ctx context.Context, userID string, email core.Email) (string, error) {
	promptTemplate := engine.DefaultSystemPrompt
	value, err := o.store.Get(ctx, memory.PromptsNamespace(userID), memory.KeyResponsePrompt)
	if err == nil {
		if stored, ok := value.(string); ok && stored != "" {
			promptTemplate = stored
		}
	} else if !errors.Is(err, memory.ErrNotFound) {
		log.Printf("[ORCH] load response prompt for user %s: %v (using default)", userID, err)
	}

	tmpl, err := template.New("response").Option("missingkey=error").Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("parse response prompt: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"from":    email.From,
		"subject": email.Subject,
		"body":    email.Body,
	}); err != nil {
		return "", fmt.Errorf("render response prompt: %w", err)
	}
	return buf.String(), nil
}
