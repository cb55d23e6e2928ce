package memory

// Persisted state layout: three namespace families per user identity.
// Prompts hold the agent's procedural memory, examples its episodic
// log, and facts its semantic memory.

const (
	// KeyTriagePrompt is the well-known prompts-namespace key for the
	// triage classifier's prompt template.
	KeyTriagePrompt = "triage_prompt"

	// KeyResponsePrompt is the well-known prompts-namespace key for the
	// response agent's system prompt template.
	KeyResponsePrompt = "response_prompt"
)

// PromptsNamespace scopes a user's procedural memory.
func PromptsNamespace(userID string) Namespace {
	return Namespace{"email_assistant", userID, "prompts"}
}

// ExamplesNamespace scopes a user's episodic few-shot examples.
func ExamplesNamespace(userID string) Namespace {
	return Namespace{"email_assistant", userID, "examples"}
}

// FactsNamespace scopes a user's semantic facts, written by the
// manage_memory tool.
func FactsNamespace(userID string) Namespace {
	return Namespace{"email_assistant", userID, "facts"}
}
