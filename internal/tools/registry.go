package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultToolNames are attached to every chat request.
var DefaultToolNames = []string{
	"wallet_portfolio_tool",
	"token_identification_tool",
}

// Registry holds the known tools by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering a duplicate name is an error.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name()]; ok {
		return fmt.Errorf("tool %q already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// MustRegister adds a tool and panics on duplicates. For wiring at startup.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a list of tool names to tools, preserving order.
func (r *Registry) Select(names []string) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	selected := make([]Tool, 0, len(names))
	for _, name := range names {
		tool, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		selected = append(selected, tool)
	}
	return selected, nil
}

// SystemMessage renders the tool section of the system prompt for the
// given selection. Returns the empty string for an empty selection.
func SystemMessage(selected []Tool) string {
	if len(selected) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("You have access to tools that you must use sequentially:\n")
	for _, tool := range selected {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), tool.Description())
	}
	return b.String()
}
