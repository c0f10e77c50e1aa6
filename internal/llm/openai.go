package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// OpenAIClient implements Client for OpenAI-compatible chat completion APIs
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		config: config,
	}, nil
}

// Invoke runs one tool-calling turn.
func (c *OpenAIClient) Invoke(ctx context.Context, req Request) (types.Message, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return types.Message{}, &Error{Provider: ProviderOpenAI, Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    openAIMessages(req.SystemPrompt, req.Messages),
		Temperature: 0.2,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = openAITools(req.Tools)
		chatReq.ParallelToolCalls = false
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return types.Message{}, &Error{Provider: ProviderOpenAI, Message: "chat completion failed", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return types.Message{}, &Error{Provider: ProviderOpenAI, Message: "no choices in response"}
	}
	return openAIMessage(resp.Choices[0].Message), nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func openAIMessages(systemPrompt string, msgs []types.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content})
		case types.RoleHuman:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case types.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, call := range m.ToolCalls {
				args := string(call.Args)
				if args == "" {
					args = "{}"
				}
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      string(call.Kind),
						Arguments: args,
					},
				})
			}
			out = append(out, msg)
		case types.RoleTool:
			if m.ToolResult == nil {
				continue
			}
			body, err := json.Marshal(toolResultBody(m.ToolResult))
			if err != nil {
				body = []byte(m.ToolResult.Content)
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(body),
				Name:       string(m.ToolResult.Kind),
				ToolCallID: m.ToolResult.CallID,
			})
		}
	}
	return out
}

func openAITools(specs []tools.Spec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name(),
				Description: s.Description,
				Parameters:  s.JSONSchema(),
			},
		})
	}
	return out
}

func openAIMessage(msg openai.ChatCompletionMessage) types.Message {
	calls := make([]types.ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, types.ToolCall{
			ID:   tc.ID,
			Kind: toolKind(tc.Function.Name),
			Args: NormalizeArguments(tc.Function.Arguments),
		})
	}
	return types.AssistantMessage(msg.Content, firstCallOnly(calls)...)
}
