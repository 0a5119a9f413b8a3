package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/relaylabs/agentloop/corerr"
)

// AnthropicProvider adapts the Anthropic Messages API to the Provider
// contract using the official SDK's streaming client.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, corerr.New("provider.anthropic", "new", corerr.ValidationFailed, "api key is required", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicProvider{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}, nil
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

func (p *AnthropicProvider) Step(ctx context.Context, req StepRequest) (<-chan Delta, error) {
	messages, err := toAnthropicMessages(req.Messages)
	if err != nil {
		return nil, corerr.New("provider.anthropic", "step", corerr.ValidationFailed, "invalid conversation history", err)
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		tools, err := toAnthropicTools(req.Tools)
		if err != nil {
			return nil, corerr.New("provider.anthropic", "step", corerr.ValidationFailed, "invalid tool schema", err)
		}
		params.Tools = tools
	}

	out := make(chan Delta, 8)
	stream := p.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(out)

		var toolID, toolName string
		var toolInput []byte
		inToolBlock := false
		sawToolCall := false
		var usage Usage

		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "message_start":
				ms := event.AsMessageStart()
				usage.InputTokens = int(ms.Message.Usage.InputTokens)
			case "content_block_start":
				block := event.AsContentBlockStart().ContentBlock
				if block.Type == "tool_use" {
					tu := block.AsToolUse()
					toolID, toolName = tu.ID, tu.Name
					toolInput = toolInput[:0]
					inToolBlock = true
				}
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				switch delta.Type {
				case "text_delta":
					if delta.Text != "" {
						out <- Delta{Kind: DeltaText, Text: delta.Text}
					}
				case "input_json_delta":
					toolInput = append(toolInput, []byte(delta.PartialJSON)...)
				}
			case "content_block_stop":
				if inToolBlock {
					var args map[string]any
					if len(toolInput) > 0 {
						_ = json.Unmarshal(toolInput, &args)
					}
					out <- Delta{Kind: DeltaToolCall, ToolCall: &ToolCallRequest{
						ID: toolID, ToolName: toolName, Arguments: args,
					}}
					inToolBlock = false
					sawToolCall = true
				}
			case "message_delta":
				md := event.AsMessageDelta()
				usage.OutputTokens = int(md.Usage.OutputTokens)
			case "message_stop":
				stop := "stop"
				if sawToolCall {
					stop = "tool-calls"
				}
				out <- Delta{Kind: DeltaDone, StopText: stop, Usage: usage}
				return
			}
		}
		if err := stream.Err(); err != nil {
			out <- Delta{Kind: DeltaDone, StopText: "error", Usage: usage}
			return
		}
	}()

	return out, nil
}

func toAnthropicMessages(msgs []Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, m := range msgs {
		if m.Role == RoleSystem {
			continue
		}
		var content []anthropic.ContentBlockParamUnion
		if m.Text != "" {
			content = append(content, anthropic.NewTextBlock(m.Text))
		}
		for _, tr := range m.ToolResults {
			content = append(content, anthropic.NewToolResultBlock(tr.CallID, tr.Content, tr.IsError))
		}
		for _, tc := range m.ToolCalls {
			content = append(content, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.ToolName))
		}
		if len(content) == 0 {
			continue
		}
		if m.Role == RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func toAnthropicTools(specs []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, spec := range specs {
		raw, err := json.Marshal(spec.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema for %s: %w", spec.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("decode schema for %s: %w", spec.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, spec.Name)
		if toolParam.OfTool != nil {
			toolParam.OfTool.Description = anthropic.String(spec.Description)
		}
		result = append(result, toolParam)
	}
	return result, nil
}
