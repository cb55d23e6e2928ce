package claude

import (
	"encoding/json"
	"testing"

	"github.com/getdrafty/drafty-go-sdk/oracle"
)

func TestToAPITools_RequiredShapes(t *testing.T) {
	// Schemas built with the tools helpers carry []string; schemas
	// decoded from JSON carry []interface{}. Both must survive.
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(`{
		"type": "object",
		"properties": {"to": {"type": "string"}, "body": {"type": "string"}},
		"required": ["to", "body"]
	}`), &decoded); err != nil {
		t.Fatalf("decode schema: %v", err)
	}

	specs := []oracle.ToolSpec{
		{
			Name: "built",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
				"required":   []string{"query"},
			},
		},
		{Name: "decoded", InputSchema: decoded},
	}

	apiTools := toAPITools(specs)
	if len(apiTools) != 2 {
		t.Fatalf("got %d tools, want 2", len(apiTools))
	}

	built := apiTools[0].OfTool
	if built == nil || len(built.InputSchema.Required) != 1 || built.InputSchema.Required[0] != "query" {
		t.Errorf("built schema required = %v, want [query]", built.InputSchema.Required)
	}

	dec := apiTools[1].OfTool
	if dec == nil || len(dec.InputSchema.Required) != 2 {
		t.Fatalf("decoded schema required = %v, want [to body]", dec.InputSchema.Required)
	}
	if dec.InputSchema.Required[0] != "to" || dec.InputSchema.Required[1] != "body" {
		t.Errorf("decoded schema required = %v, want [to body]", dec.InputSchema.Required)
	}
}
