// Package triage routes incoming email to one of three handling paths
// using a stored procedural prompt and retrieved episodic examples.
package triage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"text/template"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/memory"
	"github.com/getdrafty/drafty-go-sdk/oracle"
)

// Config holds triage configuration.
type Config struct {
	// MaxExamples caps how many episodic examples are retrieved for the
	// few-shot fragment.
	MaxExamples int
}

// DefaultConfig provides sensible defaults for triage.
var DefaultConfig = &Config{
	MaxExamples: 5,
}

// Decision is the outcome of classifying one email.
type Decision struct {
	Label     core.Classification
	Rationale string
}

// Classifier decides how each incoming email should be handled. It
// reads from the memory store but never writes to it.
type Classifier struct {
	store  memory.Store
	oracle oracle.Completer
	config *Config
}

// NewClassifier creates a Classifier backed by the given store and
// oracle. A nil config selects DefaultConfig.
func NewClassifier(store memory.Store, completer oracle.Completer, config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig
	}
	return &Classifier{
		store:  store,
		oracle: completer,
		config: config,
	}
}

// Classify produces a triage decision for the email. The stored triage
// prompt is used when present, the built-in default otherwise; example
// retrieval failures degrade to an empty few-shot fragment rather than
// failing the run.
func (c *Classifier) Classify(ctx context.Context, userID string, email core.Email) (*Decision, error) {
	promptTemplate := c.promptTemplate(ctx, userID)
	examples := c.retrieveExamples(ctx, userID, email)

	prompt, err := renderPrompt(promptTemplate, map[string]string{
		"from":     email.From,
		"subject":  email.Subject,
		"body":     email.Body,
		"examples": FormatExamples(examples),
	})
	if err != nil {
		return nil, &TemplateError{Err: err}
	}

	result, err := c.oracle.Classify(ctx, prompt)
	if err != nil {
		log.Printf("[TRIAGE] classification attempt failed, retrying: %v", err)
		result, err = c.oracle.Classify(ctx, prompt)
		if err != nil {
			return nil, &ClassificationError{Err: err}
		}
	}

	log.Printf("[TRIAGE] user=%s label=%s", userID, result.Label)
	return &Decision{Label: result.Label, Rationale: result.Rationale}, nil
}

// promptTemplate returns the user's stored triage prompt, falling back
// to the default when none has been written yet.
func (c *Classifier) promptTemplate(ctx context.Context, userID string) string {
	value, err := c.store.Get(ctx, memory.PromptsNamespace(userID), memory.KeyTriagePrompt)
	if err != nil {
		if !errors.Is(err, memory.ErrNotFound) {
			log.Printf("[TRIAGE] load prompt for user %s: %v (using default)", userID, err)
		}
		return DefaultPrompt
	}
	prompt, ok := value.(string)
	if !ok || prompt == "" {
		return DefaultPrompt
	}
	return prompt
}

// retrieveExamples searches the user's episodic examples for the most
// similar past classifications. Failures degrade to no examples.
func (c *Classifier) retrieveExamples(ctx context.Context, userID string, email core.Email) []core.Example {
	records, err := c.store.Search(ctx, memory.ExamplesNamespace(userID), email.SearchText(), c.config.MaxExamples)
	if err != nil {
		log.Printf("[TRIAGE] example retrieval for user %s failed, proceeding without examples: %v", userID, err)
		return nil
	}

	examples := make([]core.Example, 0, len(records))
	for _, record := range records {
		example, ok := record.Value.(core.Example)
		if !ok {
			log.Printf("[TRIAGE] skipping malformed example %s", record.Key)
			continue
		}
		examples = append(examples, example)
	}
	return examples
}

// renderPrompt substitutes the triage placeholders. Unknown or missing
// placeholders are an error rather than silent empty output.
func renderPrompt(promptTemplate string, fields map[string]string) (string, error) {
	tmpl, err := template.New("triage").Option("missingkey=error").Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}
	return buf.String(), nil
}
