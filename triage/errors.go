package triage

import "fmt"

// TemplateError indicates malformed prompt-template substitution. It is
// surfaced to the caller and not retried.
type TemplateError struct {
	Err error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("triage: render prompt template: %v", e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// ClassificationError indicates the oracle failed to return a valid
// one-of-three label after a retry. Fatal for the run it occurred in;
// other runs are unaffected.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("triage: classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }
