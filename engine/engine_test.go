package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/engine"
	"github.com/getdrafty/drafty-go-sdk/oracle"
)

// scriptedOracle replays a fixed sequence of Converse turns.
type scriptedOracle struct {
	turns []*oracle.Turn
	errs  []error
	calls int
}

func (o *scriptedOracle) Classify(ctx context.Context, prompt string) (*oracle.ClassifyResult, error) {
	return nil, errors.New("not implemented")
}

func (o *scriptedOracle) Converse(ctx context.Context, systemPrompt string, history []core.Message, tools []oracle.ToolSpec) (*oracle.Turn, error) {
	i := o.calls
	o.calls++
	if i < len(o.errs) && o.errs[i] != nil {
		return nil, o.errs[i]
	}
	if i < len(o.turns) {
		return o.turns[i], nil
	}
	// Past the script, keep requesting the last scripted turn.
	return o.turns[len(o.turns)-1], nil
}

func (o *scriptedOracle) Optimize(ctx context.Context, prompts map[string]string, trajectories []oracle.Trajectory) (map[string]string, error) {
	return nil, errors.New("not implemented")
}

// recordingTool captures its invocations and returns a scripted result.
type recordingTool struct {
	name    string
	result  *core.ToolResult
	err     error
	inputs  []json.RawMessage
	userIDs []string
}

func (t *recordingTool) Name() string                        { return t.name }
func (t *recordingTool) Description() string                 { return "test tool" }
func (t *recordingTool) InputSchema() map[string]interface{} { return map[string]interface{}{} }

func (t *recordingTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	t.inputs = append(t.inputs, params.Input)
	t.userIDs = append(t.userIDs, params.UserID)
	return t.result, t.err
}

func toolCallTurn(id, name, input string) *oracle.Turn {
	return &oracle.Turn{
		ToolCall: &core.ToolCall{ID: id, Name: name, Input: json.RawMessage(input)},
	}
}

func TestRun_CompleteWithoutTools(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedOracle{turns: []*oracle.Turn{
		{Reply: "All done, nothing to do."},
	}}
	eng := engine.NewEngine(completer, engine.NewRegistry())

	output, err := eng.Run(ctx, &engine.Input{
		UserID:  "user1",
		History: []core.Message{core.UserMessage("hello")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Type != engine.OutputComplete {
		t.Fatalf("Type = %v, want OutputComplete", output.Type)
	}
	if output.Text != "All done, nothing to do." {
		t.Errorf("Text = %q", output.Text)
	}
	if len(output.ToolsUsed) != 0 {
		t.Errorf("ToolsUsed = %v, want none", output.ToolsUsed)
	}
	// Transcript: seeded user message plus the final assistant reply.
	if len(output.Messages) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(output.Messages))
	}
	if output.Messages[0].Role != core.RoleUser || output.Messages[1].Role != core.RoleAssistant {
		t.Errorf("transcript roles = [%s %s]", output.Messages[0].Role, output.Messages[1].Role)
	}
}

func TestRun_ToolDispatch(t *testing.T) {
	ctx := context.Background()
	tool := &recordingTool{
		name:   "send_email",
		result: &core.ToolResult{Success: true, Data: map[string]interface{}{"message": "Email sent to jim"}},
	}
	registry := engine.NewRegistry()
	registry.Register(tool)

	completer := &scriptedOracle{turns: []*oracle.Turn{
		toolCallTurn("call-1", "send_email", `{"to":"jim@corp.example","subject":"Re: Sync","body":"Works for me."}`),
		{Reply: "Replied to Jim."},
	}}
	eng := engine.NewEngine(completer, registry)

	output, err := eng.Run(ctx, &engine.Input{
		UserID:  "user1",
		History: []core.Message{core.UserMessage("incoming email")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Type != engine.OutputComplete {
		t.Fatalf("Type = %v, want OutputComplete", output.Type)
	}
	if len(tool.inputs) != 1 {
		t.Fatalf("tool executed %d times, want 1", len(tool.inputs))
	}
	if tool.userIDs[0] != "user1" {
		t.Errorf("tool saw user %q, want user1", tool.userIDs[0])
	}
	if len(output.ToolsUsed) != 1 || output.ToolsUsed[0] != "send_email" {
		t.Errorf("ToolsUsed = %v", output.ToolsUsed)
	}

	// Transcript order: user, assistant tool call, observation, reply.
	wantRoles := []core.Role{core.RoleUser, core.RoleAssistant, core.RoleTool, core.RoleAssistant}
	if len(output.Messages) != len(wantRoles) {
		t.Fatalf("transcript has %d messages, want %d", len(output.Messages), len(wantRoles))
	}
	for i, want := range wantRoles {
		if output.Messages[i].Role != want {
			t.Errorf("Messages[%d].Role = %s, want %s", i, output.Messages[i].Role, want)
		}
	}
	if output.Messages[1].ToolCall == nil || output.Messages[1].ToolCall.Name != "send_email" {
		t.Error("assistant message missing the tool call")
	}
	observation := output.Messages[2].ToolResult
	if observation == nil || observation.CallID != "call-1" {
		t.Fatalf("observation = %+v, want call-1", observation)
	}
	if observation.IsError {
		t.Error("successful tool marked as error observation")
	}
	if observation.Content != "Email sent to jim" {
		t.Errorf("observation content = %q", observation.Content)
	}
}

func TestRun_StalledAtTurnCap(t *testing.T) {
	ctx := context.Background()
	tool := &recordingTool{
		name:   "check_calendar",
		result: &core.ToolResult{Success: true, Data: "free all day"},
	}
	registry := engine.NewRegistry()
	registry.Register(tool)

	// The oracle never stops asking for the calendar.
	completer := &scriptedOracle{turns: []*oracle.Turn{
		toolCallTurn("call-x", "check_calendar", `{"dates":["01-09-2026"]}`),
	}}
	eng := engine.NewEngine(completer, registry, engine.WithConfig(&engine.Config{MaxTurns: 3}))

	output, err := eng.Run(ctx, &engine.Input{
		UserID:  "user1",
		History: []core.Message{core.UserMessage("incoming email")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Type != engine.OutputStalled {
		t.Fatalf("Type = %v, want OutputStalled", output.Type)
	}
	if len(output.ToolsUsed) != 3 {
		t.Errorf("ToolsUsed has %d entries, want 3", len(output.ToolsUsed))
	}
	// Partial transcript: seed plus one call/observation pair per turn.
	if len(output.Messages) != 1+3*2 {
		t.Errorf("transcript has %d messages, want %d", len(output.Messages), 1+3*2)
	}
}

func TestRun_UnknownToolBecomesObservation(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedOracle{turns: []*oracle.Turn{
		toolCallTurn("call-1", "no_such_tool", `{}`),
		{Reply: "Recovered."},
	}}
	eng := engine.NewEngine(completer, engine.NewRegistry())

	output, err := eng.Run(ctx, &engine.Input{UserID: "user1"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if output.Type != engine.OutputComplete {
		t.Fatalf("Type = %v, want OutputComplete after recovery", output.Type)
	}

	var observation *core.ToolObservation
	for _, msg := range output.Messages {
		if msg.ToolResult != nil {
			observation = msg.ToolResult
		}
	}
	if observation == nil {
		t.Fatal("no observation recorded for unknown tool")
	}
	if !observation.IsError {
		t.Error("unknown tool observation not marked as error")
	}
}

func TestRun_ToolFailureBecomesObservation(t *testing.T) {
	ctx := context.Background()
	tool := &recordingTool{
		name: "send_email",
		err:  errors.New("smtp unreachable"),
	}
	registry := engine.NewRegistry()
	registry.Register(tool)

	completer := &scriptedOracle{turns: []*oracle.Turn{
		toolCallTurn("call-1", "send_email", `{}`),
		{Reply: "Could not send, flagged for the user."},
	}}
	eng := engine.NewEngine(completer, registry)

	output, err := eng.Run(ctx, &engine.Input{UserID: "user1"})
	if err != nil {
		t.Fatalf("tool failure must not fail the run: %v", err)
	}
	if output.Type != engine.OutputComplete {
		t.Fatalf("Type = %v, want OutputComplete", output.Type)
	}

	observation := output.Messages[1].ToolResult
	if observation == nil {
		observation = output.Messages[2].ToolResult
	}
	if observation == nil || !observation.IsError {
		t.Fatalf("expected error observation, got %+v", observation)
	}
}

func TestRun_OracleFailureEndsRun(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedOracle{
		turns: []*oracle.Turn{{Reply: "unreachable"}},
		errs:  []error{errors.New("api down")},
	}
	eng := engine.NewEngine(completer, engine.NewRegistry())

	output, err := eng.Run(ctx, &engine.Input{UserID: "user1"})
	if err != nil {
		t.Fatalf("Run returned transport error directly: %v", err)
	}
	if output.Type != engine.OutputError {
		t.Fatalf("Type = %v, want OutputError", output.Type)
	}
	if output.Err == nil {
		t.Error("OutputError without Err")
	}
}

func TestRegistry_PreservesOrder(t *testing.T) {
	registry := engine.NewRegistry()
	names := []string{"send_email", "check_calendar", "manage_memory"}
	for _, name := range names {
		registry.Register(&recordingTool{name: name})
	}

	specs := registry.Specs()
	if len(specs) != len(names) {
		t.Fatalf("Specs has %d entries, want %d", len(specs), len(names))
	}
	for i, name := range names {
		if specs[i].Name != name {
			t.Errorf("Specs[%d].Name = %q, want %q", i, specs[i].Name, name)
		}
	}

	// Re-registering keeps the original position.
	registry.Register(&recordingTool{name: "send_email"})
	specs = registry.Specs()
	if len(specs) != len(names) || specs[0].Name != "send_email" {
		t.Errorf("re-registration changed order: %v", specs)
	}
}
