package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	openailib "github.com/sashabaranov/go-openai"

	"github.com/relaylabs/agentloop/corerr"
)

// OpenAIProvider adapts the Chat Completions streaming API to the Provider
// contract. Any OpenAI-compatible endpoint (custom BaseURL) works.
type OpenAIProvider struct {
	client *openailib.Client
	model  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, corerr.New("provider.openai", "new", corerr.ValidationFailed, "api key is required", nil)
	}
	clientCfg := openailib.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{
		client: openailib.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Step(ctx context.Context, req StepRequest) (<-chan Delta, error) {
	msgs := toOpenAIMessages(req.SystemPrompt, req.Messages)
	tools := toOpenAITools(req.Tools)

	creq := openailib.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Tools:       tools,
		Temperature: float32(req.Temperature),
		Stream:      true,
	}
	if req.MaxTokens > 0 {
		creq.MaxTokens = req.MaxTokens
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, corerr.New("provider.openai", "step", corerr.ProviderError, "failed to open stream", err)
	}

	out := make(chan Delta, 8)
	go func() {
		defer close(out)
		defer stream.Close()

		type pendingCall struct {
			id, name string
			args     []byte
		}
		calls := map[int]*pendingCall{}
		var order []int
		var usage Usage

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				for _, idx := range order {
					c := calls[idx]
					var args map[string]any
					if len(c.args) > 0 {
						_ = json.Unmarshal(c.args, &args)
					}
					out <- Delta{Kind: DeltaToolCall, ToolCall: &ToolCallRequest{
						ID: c.id, ToolName: c.name, Arguments: args,
					}}
				}
				stop := "stop"
				if len(order) > 0 {
					stop = "tool-calls"
				}
				out <- Delta{Kind: DeltaDone, StopText: stop, Usage: usage}
				return
			}
			if err != nil {
				out <- Delta{Kind: DeltaDone, StopText: "error", Usage: usage}
				return
			}
			if resp.Usage != nil {
				usage.InputTokens = resp.Usage.PromptTokens
				usage.OutputTokens = resp.Usage.CompletionTokens
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			if choice.Delta.Content != "" {
				out <- Delta{Kind: DeltaText, Text: choice.Delta.Content}
			}
			for _, tc := range choice.Delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				c, ok := calls[idx]
				if !ok {
					c = &pendingCall{}
					calls[idx] = c
					order = append(order, idx)
				}
				if tc.ID != "" {
					c.id = tc.ID
				}
				if tc.Function.Name != "" {
					c.name = tc.Function.Name
				}
				c.args = append(c.args, []byte(tc.Function.Arguments)...)
			}
			if choice.FinishReason == openailib.FinishReasonStop || choice.FinishReason == openailib.FinishReasonLength {
				stop := "stop"
				if choice.FinishReason == openailib.FinishReasonLength {
					stop = "length"
				}
				out <- Delta{Kind: DeltaDone, StopText: stop, Usage: usage}
				return
			}
		}
	}()

	return out, nil
}

func toOpenAIMessages(system string, msgs []Message) []openailib.ChatCompletionMessage {
	var result []openailib.ChatCompletionMessage
	if system != "" {
		result = append(result, openailib.ChatCompletionMessage{Role: openailib.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			result = append(result, openailib.ChatCompletionMessage{Role: openailib.ChatMessageRoleUser, Content: m.Text})
		case RoleAssistant:
			cm := openailib.ChatCompletionMessage{Role: openailib.ChatMessageRoleAssistant, Content: m.Text}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				cm.ToolCalls = append(cm.ToolCalls, openailib.ToolCall{
					ID:   tc.ID,
					Type: openailib.ToolTypeFunction,
					Function: openailib.FunctionCall{
						Name:      tc.ToolName,
						Arguments: string(args),
					},
				})
			}
			result = append(result, cm)
		case RoleTool:
			for _, tr := range m.ToolResults {
				result = append(result, openailib.ChatCompletionMessage{
					Role:       openailib.ChatMessageRoleTool,
					Content:    tr.Content,
					ToolCallID: tr.CallID,
				})
			}
		}
	}
	return result
}

func toOpenAITools(specs []ToolSpec) []openailib.Tool {
	if len(specs) == 0 {
		return nil
	}
	var result []openailib.Tool
	for _, spec := range specs {
		result = append(result, openailib.Tool{
			Type: openailib.ToolTypeFunction,
			Function: &openailib.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema,
			},
		})
	}
	return result
}
