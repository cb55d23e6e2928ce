package tools

import (
	"github.com/getdrafty/drafty-go-sdk/core"
)

// InboxToolDefinitions returns the definitions for the standard inbox
// tools. send_email is the domain action (side-effecting, returns a
// confirmation string); check_calendar is the domain query
// (side-effect-free snapshot).
func InboxToolDefinitions() []core.ToolDefinition {
	return []core.ToolDefinition{
		{
			ToolName:        "send_email",
			ToolDescription: "Compose and send an email reply. Returns a confirmation once the message is sent.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"to":      StringProperty("Recipient email address"),
				"subject": StringProperty("Email subject line"),
				"body":    StringProperty("Full email body text"),
			}, "to", "subject", "body"),
		},
		{
			ToolName:        "check_calendar",
			ToolDescription: "Check the user's calendar availability. Returns a textual snapshot of free and busy slots for the requested days.",
			InputSchema: ObjectSchema(map[string]interface{}{
				"dates": ArrayProperty(
					"Days to check, formatted DD-MM-YYYY",
					StringProperty("A day to check"),
				),
			}, "dates"),
		},
	}
}

// InboxTools creates Tool instances for the standard inbox tools using
// the given executor. The executor owns the actual side effects (SMTP,
// calendar API); the SDK only routes invocations to it.
func InboxTools(executor core.ToolExecutor) []core.Tool {
	definitions := InboxToolDefinitions()
	instances := make([]core.Tool, len(definitions))
	for i, def := range definitions {
		instances[i] = core.NewExecutorTool(def, executor)
	}
	return instances
}
