package agent

import (
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/provider"
	"github.com/relaylabs/agentloop/tool"
)

// Registry holds every agent built from a loaded configuration, keyed by
// name. Team and workflow construction look agents up here rather than
// building them ad hoc.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

func NewRegistry() *Registry {
	return &Registry{agents: map[string]*Agent{}}
}

func (r *Registry) Register(name string, a *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[name] = a
}

func (r *Registry) Get(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for n := range r.agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BuildFromConfig constructs and registers every agent named in cfg.
func BuildFromConfig(cfg *config.Config, providers *provider.Registry, toolRegistry *tool.Registry, meter metric.Meter) (*Registry, error) {
	reg := NewRegistry()
	for name := range cfg.Agents {
		a, err := NewFromConfig(name, cfg, providers, toolRegistry, meter)
		if err != nil {
			return nil, fmt.Errorf("build agent %q: %w", name, err)
		}
		reg.Register(name, a)
	}
	return reg, nil
}
