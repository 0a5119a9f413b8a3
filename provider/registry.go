package provider

import (
	"fmt"
	"sync"

	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/corerr"
)

// Registry holds named, constructed Provider instances, built once from
// config and looked up by agents at run time.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

func (r *Registry) Register(name string, p Provider) error {
	if name == "" {
		return corerr.New("provider.registry", "register", corerr.ValidationFailed, "name must not be empty", nil)
	}
	if p == nil {
		return corerr.New("provider.registry", "register", corerr.ValidationFailed, "provider must not be nil", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	return nil
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// BuildFromConfig constructs and registers a Provider for every entry in
// cfg.LLMs, dispatching on its Type.
func BuildFromConfig(cfg map[string]config.LLMProviderConfig) (*Registry, error) {
	reg := NewRegistry()
	for name, llmCfg := range cfg {
		p, err := buildOne(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		if err := reg.Register(name, p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildOne(c config.LLMProviderConfig) (Provider, error) {
	switch c.Type {
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
			Timeout: c.Timeout,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  c.APIKey,
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	case "mock":
		return &MockProvider{ModelName: c.Model}, nil
	default:
		return nil, corerr.New("provider.registry", "build", corerr.ValidationFailed, fmt.Sprintf("unsupported provider type %q", c.Type), nil)
	}
}
