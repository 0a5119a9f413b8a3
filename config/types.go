// Package config provides configuration types and loading for the agent
// execution core.
package config

import (
	"fmt"
	"time"
)

// ============================================================================
// LLM PROVIDER CONFIGURATION
// ============================================================================

// LLMProviderConfig describes one named model provider (component A).
type LLMProviderConfig struct {
	Type        string        `yaml:"type"` // "anthropic" | "openai" | "mock"
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

func (c *LLMProviderConfig) Validate() error {
	switch c.Type {
	case "anthropic", "openai", "mock":
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unsupported provider type %q", c.Type)
	}
	if c.Type != "mock" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider type %q", c.Type)
	}
	return nil
}

func (c *LLMProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "anthropic"
	}
	if c.Model == "" {
		switch c.Type {
		case "anthropic":
			c.Model = "claude-sonnet-4-5"
		case "openai":
			c.Model = "gpt-4o"
		default:
			c.Model = "mock-model"
		}
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
}

// ============================================================================
// USAGE LIMITS — component J
// ============================================================================

// UsageLimits is a subset of the four counters; a zero value for a field
// means that counter is not enforced.
type UsageLimits struct {
	MaxRequests     int `yaml:"max_requests,omitempty"`
	MaxInputTokens  int `yaml:"max_input_tokens,omitempty"`
	MaxOutputTokens int `yaml:"max_output_tokens,omitempty"`
	MaxTotalTokens  int `yaml:"max_total_tokens,omitempty"`
}

func (c *UsageLimits) Validate() error {
	if c.MaxRequests < 0 || c.MaxInputTokens < 0 || c.MaxOutputTokens < 0 || c.MaxTotalTokens < 0 {
		return fmt.Errorf("usage limits must not be negative")
	}
	return nil
}

// ============================================================================
// APPROVAL CONFIGURATION — component F
// ============================================================================

type ApprovalConfig struct {
	// RequireFor lists tool names that always require approval, in addition
	// to the built-in dangerous set (shell, browser, file-write, file-edit,
	// file-create).
	RequireFor []string      `yaml:"require_for,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	// DefaultDeny controls whether a timed-out approval denies (true) or
	// approves (false) the call. Default is deny.
	DefaultDeny *bool `yaml:"default_deny,omitempty"`
}

func (c *ApprovalConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.DefaultDeny == nil {
		deny := true
		c.DefaultDeny = &deny
	}
}

// ============================================================================
// AGENT CONFIGURATION
// ============================================================================

// AgentConfig describes one agent instance per the external interfaces
// section.
type AgentConfig struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description,omitempty"`
	LLM           string         `yaml:"llm"` // key into Config.LLMs
	SystemPrompt  string         `yaml:"system_prompt,omitempty"`
	WorkspaceRoot string         `yaml:"workspace_root,omitempty"`
	MaxSteps      int            `yaml:"max_steps,omitempty"`
	ToolPreset    string         `yaml:"tool_preset,omitempty"` // "minimal" | "standard" | "full"
	Tools         []string       `yaml:"tools,omitempty"`       // explicit tool names, overrides preset when set
	Approval      ApprovalConfig `yaml:"approval,omitempty"`
	UsageLimits   UsageLimits    `yaml:"usage_limits,omitempty"`
}

func (c *AgentConfig) Validate() error {
	if c.LLM == "" {
		return fmt.Errorf("llm is required")
	}
	switch c.ToolPreset {
	case "", "minimal", "standard", "full":
	default:
		return fmt.Errorf("unknown tool_preset %q", c.ToolPreset)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	return c.UsageLimits.Validate()
}

func (c *AgentConfig) SetDefaults() {
	if c.MaxSteps == 0 {
		c.MaxSteps = 25
	}
	if c.ToolPreset == "" {
		c.ToolPreset = "standard"
	}
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = "."
	}
	c.Approval.SetDefaults()
}

// ============================================================================
// TEAM CONFIGURATION — component H
// ============================================================================

// TeamExecutionMode selects task-based round-robin vs. prompt-based
// parallel dispatch for a team run.
type TeamExecutionMode string

const (
	TeamExecutionTaskBased   TeamExecutionMode = "task-based"
	TeamExecutionPromptBased TeamExecutionMode = "prompt-based"
)

type TeamConfig struct {
	Name          string            `yaml:"name"`
	Lead          string            `yaml:"lead"`    // agent name acting as lead/planner
	Members       []string          `yaml:"members"` // agent names, excludes lead for prompt-based fan-out
	ExecutionMode TeamExecutionMode `yaml:"execution_mode,omitempty"`
	MaxRounds     int               `yaml:"max_rounds,omitempty"`
}

func (c *TeamConfig) Validate() error {
	if c.Lead == "" {
		return fmt.Errorf("lead is required")
	}
	if len(c.Members) == 0 {
		return fmt.Errorf("at least one member is required")
	}
	switch c.ExecutionMode {
	case "", TeamExecutionTaskBased, TeamExecutionPromptBased:
	default:
		return fmt.Errorf("unknown execution_mode %q", c.ExecutionMode)
	}
	return nil
}

func (c *TeamConfig) SetDefaults() {
	if c.ExecutionMode == "" {
		c.ExecutionMode = TeamExecutionTaskBased
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 10
	}
}

// ============================================================================
// TOOL CONFIGURATION — component C
// ============================================================================

type ShellToolConfig struct {
	WorkingDirectory string        `yaml:"working_directory,omitempty"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time,omitempty"`
	GraceWindow      time.Duration `yaml:"grace_window,omitempty"`
}

func (c *ShellToolConfig) SetDefaults() {
	if c.MaxExecutionTime == 0 {
		c.MaxExecutionTime = 30 * time.Second
	}
	if c.GraceWindow == 0 {
		c.GraceWindow = 3 * time.Second
	}
}

type FilesystemToolConfig struct {
	AllowedRoots []string `yaml:"allowed_roots"`
}

func (c *FilesystemToolConfig) Validate() error {
	if len(c.AllowedRoots) == 0 {
		return fmt.Errorf("at least one allowed_root is required")
	}
	return nil
}

type BackgroundToolConfig struct {
	MaxBufferBytes int           `yaml:"max_buffer_bytes,omitempty"`
	KillGrace      time.Duration `yaml:"kill_grace,omitempty"`
}

func (c *BackgroundToolConfig) SetDefaults() {
	if c.MaxBufferBytes == 0 {
		c.MaxBufferBytes = 1 << 20 // 1 MiB
	}
	if c.KillGrace == 0 {
		c.KillGrace = 5 * time.Second
	}
}

type BrowserToolConfig struct {
	CLIPath    string  `yaml:"cli_path,omitempty"`
	DefaultFPS float64 `yaml:"default_fps,omitempty"`
	MaxQuality int     `yaml:"max_quality,omitempty"`
}

func (c *BrowserToolConfig) SetDefaults() {
	if c.DefaultFPS == 0 {
		c.DefaultFPS = 2
	}
	if c.MaxQuality == 0 {
		c.MaxQuality = 80
	}
}

type ToolsConfig struct {
	Shell      ShellToolConfig      `yaml:"shell,omitempty"`
	Filesystem FilesystemToolConfig `yaml:"filesystem,omitempty"`
	Background BackgroundToolConfig `yaml:"background,omitempty"`
	Browser    BrowserToolConfig    `yaml:"browser,omitempty"`
}

func (c *ToolsConfig) Validate() error {
	if err := c.Filesystem.Validate(); err != nil {
		return fmt.Errorf("filesystem tool: %w", err)
	}
	return nil
}

func (c *ToolsConfig) SetDefaults() {
	if len(c.Filesystem.AllowedRoots) == 0 {
		c.Filesystem.AllowedRoots = []string{"."}
	}
	c.Shell.SetDefaults()
	c.Background.SetDefaults()
	c.Browser.SetDefaults()
}

// ============================================================================
// EVAL SUITE CONFIGURATION — component I
// ============================================================================

type EvalSuiteConfig struct {
	Name           string        `yaml:"name"`
	Agent          string        `yaml:"agent"`
	MaxConcurrency int           `yaml:"max_concurrency,omitempty"`
	CaseTimeout    time.Duration `yaml:"case_timeout,omitempty"`
	Reporter       string        `yaml:"reporter,omitempty"` // "console" | "json" | "prometheus"
}

func (c *EvalSuiteConfig) Validate() error { return nil }

func (c *EvalSuiteConfig) SetDefaults() {
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 1
	}
	if c.CaseTimeout == 0 {
		c.CaseTimeout = 30 * time.Second
	}
	if c.Reporter == "" {
		c.Reporter = "console"
	}
}

// ============================================================================
// GLOBAL SETTINGS
// ============================================================================

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

type TelemetryConfig struct {
	TracingEnabled bool   `yaml:"tracing_enabled,omitempty"`
	MetricsAddr    string `yaml:"metrics_addr,omitempty"` // prometheus /metrics listen addr
}

type GlobalSettings struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

func (c *GlobalSettings) SetDefaults() {
	c.Logging.SetDefaults()
}
