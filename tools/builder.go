package tools

import (
	"context"

	"github.com/getdrafty/drafty-go-sdk/core"
)

// HandlerFunc is the execution body of a builder-made tool.
type HandlerFunc func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error)

// Builder assembles a custom tool fluently:
//
//	tools.New("lookup_contact").
//		Description("Look up a stored contact.").
//		Schema(tools.ObjectSchema(...)).
//		Handler(func(ctx, params) (*core.ToolResult, error) { ... }).
//		Build()
type Builder struct {
	def     core.ToolDefinition
	handler HandlerFunc
}

// New starts building a tool with the given name.
func New(name string) *Builder {
	return &Builder{def: core.ToolDefinition{ToolName: name}}
}

// Description sets the tool description shown to the oracle.
func (b *Builder) Description(d string) *Builder {
	b.def.ToolDescription = d
	return b
}

// Schema sets the JSON input schema.
func (b *Builder) Schema(schema map[string]interface{}) *Builder {
	b.def.InputSchema = schema
	return b
}

// Handler sets the execution body.
func (b *Builder) Handler(h HandlerFunc) *Builder {
	b.handler = h
	return b
}

// Build returns the finished tool.
func (b *Builder) Build() core.Tool {
	return &funcTool{def: b.def, handler: b.handler}
}

type funcTool struct {
	def     core.ToolDefinition
	handler HandlerFunc
}

func (t *funcTool) Name() string                        { return t.def.ToolName }
func (t *funcTool) Description() string                 { return t.def.ToolDescription }
func (t *funcTool) InputSchema() map[string]interface{} { return t.def.InputSchema }

func (t *funcTool) Execute(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
	return t.handler(ctx, params)
}
