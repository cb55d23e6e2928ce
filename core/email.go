package core

import (
	"fmt"
	"strings"
)

// Email is the incoming item the assistant triages and may respond to.
type Email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SearchText projects the email into a single string suitable as a
// similarity-search query against episodic memory.
func (e Email) SearchText() string {
	return strings.TrimSpace(e.From + " " + e.Subject + " " + e.Body)
}

// Render formats the email as conversation text for the agent.
func (e Email) Render() string {
	return fmt.Sprintf("From: %s\nTo: %s\nSubject: %s\n\n%s", e.From, e.To, e.Subject, e.Body)
}

// Classification is the triage label assigned to an incoming email.
type Classification string

const (
	// ClassifyIgnore means the email needs no action at all.
	ClassifyIgnore Classification = "ignore"

	// ClassifyNotify means the user should see the email, but no reply
	// is drafted.
	ClassifyNotify Classification = "notify"

	// ClassifyRespond means the response agent drafts a reply.
	ClassifyRespond Classification = "respond"
)

// Valid reports whether c is one of the three triage labels.
func (c Classification) Valid() bool {
	switch c {
	case ClassifyIgnore, ClassifyNotify, ClassifyRespond:
		return true
	}
	return false
}

// ParseClassification converts a raw oracle label into a Classification.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid classification %q (want ignore, notify, or respond)", s)
	}
	return c, nil
}

// Example is one labeled episodic-memory entry used for few-shot
// retrieval at triage time. Examples are append-only: corrections are
// stored as new records, never by mutating old ones.
type Example struct {
	Email Email          `json:"email"`
	Label Classification `json:"label"`
}
