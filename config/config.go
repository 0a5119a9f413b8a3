// Package config provides configuration types and loading for the agent
// execution core. This file contains the unified configuration entry point.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for a deployment: named
// providers, named agents, named teams, shared tool settings and eval
// suites.
type Config struct {
	Version     string            `yaml:"version,omitempty"`
	Name        string            `yaml:"name,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`

	Global GlobalSettings `yaml:"global,omitempty"`

	LLMs  map[string]LLMProviderConfig `yaml:"llms,omitempty"`
	Tools ToolsConfig                  `yaml:"tools,omitempty"`

	Agents map[string]AgentConfig    `yaml:"agents,omitempty"`
	Teams  map[string]TeamConfig     `yaml:"teams,omitempty"`
	Evals  map[string]EvalSuiteConfig `yaml:"evals,omitempty"`
}

func (c *Config) Validate() error {
	if err := validateNamed("llm", c.LLMs); err != nil {
		return err
	}
	if err := c.Tools.Validate(); err != nil {
		return err
	}
	if err := validateNamed("agent", c.Agents); err != nil {
		return err
	}
	for name, agent := range c.Agents {
		if _, ok := c.LLMs[agent.LLM]; !ok {
			return fmt.Errorf("agent %q references unknown llm %q", name, agent.LLM)
		}
	}
	if err := validateNamed("team", c.Teams); err != nil {
		return err
	}
	for name, team := range c.Teams {
		if _, ok := c.Agents[team.Lead]; !ok {
			return fmt.Errorf("team %q references unknown lead agent %q", name, team.Lead)
		}
		for _, m := range team.Members {
			if _, ok := c.Agents[m]; !ok {
				return fmt.Errorf("team %q references unknown member agent %q", name, m)
			}
		}
	}
	return nil
}

func (c *Config) SetDefaults() {
	c.Global.SetDefaults()
	if c.LLMs == nil {
		c.LLMs = map[string]LLMProviderConfig{}
	}
	if c.Agents == nil {
		c.Agents = map[string]AgentConfig{}
	}
	if c.Teams == nil {
		c.Teams = map[string]TeamConfig{}
	}
	if c.Evals == nil {
		c.Evals = map[string]EvalSuiteConfig{}
	}
	setDefaultsNamed(c.LLMs)
	setDefaultsNamed(c.Agents)
	setDefaultsNamed(c.Teams)
	setDefaultsNamed(c.Evals)
	c.Tools.SetDefaults()
}

// Load reads a YAML config file, expands ${VAR}/${VAR:-default}/$VAR
// references against the process environment (after loading .env files via
// loadDotEnvFiles), decodes it, applies defaults and validates the result.
func Load(filePath string) (*Config, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
	}
	return LoadFromBytes(raw)
}

// LoadFromString is a convenience wrapper over LoadFromBytes for inline YAML.
func LoadFromString(yamlContent string) (*Config, error) {
	return LoadFromBytes([]byte(yamlContent))
}

// LoadFromBytes implements the shared decode path for Load/LoadFromString.
func LoadFromBytes(raw []byte) (*Config, error) {
	if err := loadDotEnvFiles(); err != nil {
		return nil, err
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	expanded := expandEnvTree(generic)

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "yaml",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(expanded); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// GetAgent returns an agent configuration by name.
func (c *Config) GetAgent(name string) (*AgentConfig, bool) {
	agent, ok := c.Agents[name]
	return &agent, ok
}

// GetTeam returns a team configuration by name.
func (c *Config) GetTeam(name string) (*TeamConfig, bool) {
	team, ok := c.Teams[name]
	return &team, ok
}
