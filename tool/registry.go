package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relaylabs/agentloop/corerr"
)

// Preset names a curated subset of registered tools an agent is built
// with. "minimal" is read-only (filesystem reads, reasoning); "standard"
// adds file writes, directory creation, shell and background processes;
// "full" adds the browser adapter.
type Preset string

const (
	PresetMinimal  Preset = "minimal"
	PresetStandard Preset = "standard"
	PresetFull     Preset = "full"
)

var presetMembership = map[Preset]map[string]bool{
	PresetMinimal: {
		"read_text_file": true, "list_directory": true, "get_file_info": true,
		"deep_reasoning": true,
	},
	PresetStandard: {
		"read_text_file": true, "list_directory": true, "get_file_info": true,
		"write_file": true, "create_directory": true, "deep_reasoning": true,
		"run_shell_command": true, "background_process": true,
	},
}

// Registry holds a fixed set of Tool instances, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return corerr.New("tool.registry", "register", corerr.ValidationFailed, "tool must have a non-empty name", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return corerr.New("tool.registry", "register", corerr.ValidationFailed, fmt.Sprintf("tool %q already registered", t.Name()), nil)
	}
	r.tools[t.Name()] = t
	return nil
}

// Replace installs t in place of any existing entry with the same name.
// Used by approval wrapping to swap a tool for its Wrap()-derived copy
// within a registry that is already a private per-agent Subset.
func (r *Registry) Replace(t Tool) error {
	if t == nil || t.Name() == "" {
		return corerr.New("tool.registry", "replace", corerr.ValidationFailed, "tool must have a non-empty name", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	result := make([]Tool, 0, len(names))
	for _, n := range names {
		result = append(result, r.tools[n])
	}
	return result
}

// Subset returns a fresh Registry containing only the named tools that
// exist in r. Every agent is built with its own Subset so that approval
// wrapping (see Wrap) never mutates a tool shared across agents.
func (r *Registry) Subset(names []string) *Registry {
	out := NewRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		if t, ok := r.tools[n]; ok {
			out.tools[n] = t
		}
	}
	return out
}

// ForPreset returns a fresh Registry built from the preset's member set.
// "full" is everything currently registered (browser + all standard tools).
func (r *Registry) ForPreset(preset Preset) *Registry {
	if preset == PresetFull || preset == "" {
		return r.Subset(allNames(r))
	}
	members := presetMembership[preset]
	names := make([]string, 0, len(members))
	for n := range members {
		names = append(names, n)
	}
	return r.Subset(names)
}

func allNames(r *Registry) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}
