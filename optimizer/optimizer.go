// Package optimizer turns user feedback into durable revisions of the
// stored triage and response prompts.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/engine"
	"github.com/getdrafty/drafty-go-sdk/memory"
	"github.com/getdrafty/drafty-go-sdk/oracle"
	"github.com/getdrafty/drafty-go-sdk/triage"
)

var placeholderPattern = regexp.MustCompile(`\{\{\.\w+\}\}`)

// Optimizer rewrites a user's stored prompts from trajectory feedback.
// It is the only component that writes to the prompts namespace.
type Optimizer struct {
	store  memory.Store
	oracle oracle.Completer
}

// New creates an Optimizer backed by the given store and oracle.
func New(store memory.Store, completer oracle.Completer) *Optimizer {
	return &Optimizer{
		store:  store,
		oracle: completer,
	}
}

// Optimize revises both stored prompts for the user in light of the
// feedback and the annotated trajectory. Feedback is never dropped:
// when the oracle fails, loses a template placeholder, or returns a
// prompt unchanged, the feedback is appended to that prompt as an
// explicit rule instead.
func (o *Optimizer) Optimize(ctx context.Context, userID, feedback string, messages []core.Message) error {
	if strings.TrimSpace(feedback) == "" {
		return fmt.Errorf("optimizer: feedback must not be empty")
	}

	current := map[string]string{
		memory.KeyTriagePrompt:   o.loadPrompt(ctx, userID, memory.KeyTriagePrompt, triage.DefaultPrompt),
		memory.KeyResponsePrompt: o.loadPrompt(ctx, userID, memory.KeyResponsePrompt, engine.DefaultSystemPrompt),
	}

	trajectories := []oracle.Trajectory{
		{Messages: messages, Feedback: feedback},
	}

	revised, err := o.oracle.Optimize(ctx, current, trajectories)
	if err != nil {
		log.Printf("[OPTIMIZER] oracle revision for user %s failed, amending prompts directly: %v", userID, err)
		revised = nil
	}

	for name, prompt := range current {
		next := ""
		if revised != nil {
			next = revised[name]
		}
		if !acceptable(prompt, next) {
			next = amendPrompt(prompt, feedback)
		}

		ns := memory.PromptsNamespace(userID)
		if err := o.store.Put(ctx, ns, name, next); err != nil {
			return fmt.Errorf("optimizer: store %s for user %s: %w", name, userID, err)
		}
		log.Printf("[OPTIMIZER] user=%s revised %s (%d -> %d chars)", userID, name, len(prompt), len(next))
	}

	return nil
}

// loadPrompt returns the stored prompt or the given default.
func (o *Optimizer) loadPrompt(ctx context.Context, userID, key, fallback string) string {
	value, err := o.store.Get(ctx, memory.PromptsNamespace(userID), key)
	if err != nil {
		if !errors.Is(err, memory.ErrNotFound) {
			log.Printf("[OPTIMIZER] load %s for user %s: %v (using default)", key, userID, err)
		}
		return fallback
	}
	prompt, ok := value.(string)
	if !ok || prompt == "" {
		return fallback
	}
	return prompt
}

// acceptable reports whether a revised prompt can replace the current
// one: it must be non-empty, actually changed, and keep every template
// placeholder the current prompt carries.
func acceptable(current, revised string) bool {
	if strings.TrimSpace(revised) == "" || revised == current {
		return false
	}
	for _, placeholder := range placeholderPattern.FindAllString(current, -1) {
		if !strings.Contains(revised, placeholder) {
			return false
		}
	}
	return true
}

// amendPrompt is the deterministic fallback revision: the feedback is
// appended as an explicit rule, so the change survives even when the
// oracle cannot produce a usable rewrite.
func amendPrompt(current, feedback string) string {
	return current + "\n\nADDITIONAL RULE (from user feedback):\n- " + strings.TrimSpace(feedback)
}
