package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Invoke runs one function-calling turn.
func (c *GeminiClient) Invoke(ctx context.Context, req Request) (types.Message, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return types.Message{}, &Error{Provider: ProviderGemini, Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	if req.SystemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{geminiTool(req.Tools)}
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingAuto},
		}
	}

	contents := geminiContents(req.Messages)
	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return types.Message{}, &Error{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	}
	return geminiMessage(resp)
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// geminiContents converts the transcript to Gemini turns. Gemini only knows
// user and model roles, so system and tool messages travel as user turns,
// consecutive turns of one role are merged, and the result always ends with
// a user turn.
func geminiContents(msgs []types.Message) []*genai.Content {
	var out []*genai.Content
	push := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range msgs {
		switch m.Role {
		case types.RoleSystem:
			push("user", genai.Text("[system] "+m.Content))
		case types.RoleHuman:
			push("user", genai.Text(m.Content))
		case types.RoleAssistant:
			var parts []genai.Part
			if strings.TrimSpace(m.Content) != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, call := range m.ToolCalls {
				args := map[string]any{}
				if len(call.Args) > 0 {
					_ = json.Unmarshal(call.Args, &args)
				}
				parts = append(parts, genai.FunctionCall{Name: string(call.Kind), Args: args})
			}
			push("model", parts...)
		case types.RoleTool:
			if m.ToolResult == nil {
				continue
			}
			push("user", genai.FunctionResponse{
				Name:     string(m.ToolResult.Kind),
				Response: toolResultBody(m.ToolResult),
			})
		}
	}

	if len(out) == 0 || out[len(out)-1].Role != "user" {
		out = append(out, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text("Continue.")}})
	}
	return out
}

func geminiTool(specs []tools.Spec) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        s.Name(),
			Description: s.Description,
		}
		if len(s.Params) > 0 {
			decl.Parameters = geminiObject(s.Params)
		}
		decls = append(decls, decl)
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

func geminiObject(params []tools.Param) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params)),
	}
	for _, p := range params {
		// Free-form maps have no Gemini representation; the model may still send them.
		if p.Values != nil {
			continue
		}
		schema.Properties[p.Name] = geminiSchema(p)
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func geminiSchema(p tools.Param) *genai.Schema {
	if p.Type == "object" && len(p.Properties) > 0 {
		s := geminiObject(p.Properties)
		s.Description = p.Description
		return s
	}
	s := &genai.Schema{Description: p.Description}
	switch p.Type {
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
		if p.Items != nil {
			s.Items = geminiSchema(*p.Items)
		}
	default:
		s.Type = genai.TypeString
	}
	if len(p.Enum) > 0 {
		s.Format = "enum"
		s.Enum = append([]string(nil), p.Enum...)
	}
	return s
}

// geminiMessage converts the first candidate of a response into an assistant message.
func geminiMessage(resp *genai.GenerateContentResponse) (types.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return types.Message{}, &Error{Provider: ProviderGemini, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return types.Message{}, &Error{Provider: ProviderGemini, Message: "no content in response"}
	}

	var text []string
	var calls []types.ToolCall
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text = append(text, string(p))
		case genai.FunctionCall:
			args := []byte("{}")
			if len(p.Args) > 0 {
				if b, err := json.Marshal(p.Args); err == nil {
					args = b
				}
			}
			calls = append(calls, types.ToolCall{
				ID:   uuid.NewString(),
				Kind: toolKind(p.Name),
				Args: args,
			})
		}
	}

	return types.AssistantMessage(strings.Join(text, ""), firstCallOnly(calls)...), nil
}
