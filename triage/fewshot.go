package triage

import (
	"fmt"
	"strings"

	"github.com/getdrafty/drafty-go-sdk/core"
)

// bodyPreviewLimit caps how many characters of each example body go
// into the few-shot fragment.
const bodyPreviewLimit = 300

// FormatExamples renders retrieved episodic examples into the few-shot
// fragment injected into the triage prompt. Ranking order is preserved;
// an empty input produces an empty string.
func FormatExamples(examples []core.Example) string {
	if len(examples) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(examples))
	for _, ex := range examples {
		body := ex.Email.Body
		if runes := []rune(body); len(runes) > bodyPreviewLimit {
			body = string(runes[:bodyPreviewLimit]) + "..."
		}
		rendered = append(rendered, fmt.Sprintf(
			"From: %s\nSubject: %s\nBody: %s\nLabel: %s",
			ex.Email.From, ex.Email.Subject, body, ex.Label,
		))
	}

	return strings.Join(rendered, "\n\n")
}
