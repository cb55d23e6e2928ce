package engine

import (
	"github.com/getdrafty/drafty-go-sdk/core"
	"github.com/getdrafty/drafty-go-sdk/oracle"
)

// Registry holds the tools available to an agent run. Registration
// order is preserved so the tool list presented to the oracle is
// stable across runs.
type Registry struct {
	tools map[string]core.Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]core.Tool),
	}
}

// Register adds a tool to the registry. Registering a name twice
// replaces the earlier tool but keeps its original position.
func (r *Registry) Register(tool core.Tool) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (core.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Specs returns oracle tool specs in registration order.
func (r *Registry) Specs() []oracle.ToolSpec {
	specs := make([]oracle.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, oracle.ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return specs
}
