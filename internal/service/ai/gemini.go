package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig holds the settings for the Gemini-backed gateway.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// GeminiGateway implements Gateway on the Google Gemini SDK. Gemini
// supports structured output natively, so every turn is constrained to
// the envelope schema at the provider level.
type GeminiGateway struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGeminiGateway creates a Gemini-backed model gateway.
func NewGeminiGateway(ctx context.Context, cfg GeminiConfig) (*GeminiGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiGateway{client: client, cfg: cfg}, nil
}

func (g *GeminiGateway) generateConfig(systemInstruction string, schema map[string]any) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.cfg.MaxTokens),
	}

	if g.cfg.Temperature > 0 {
		temp := float32(g.cfg.Temperature)
		config.Temperature = &temp
	}

	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	if schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = buildGeminiSchema(schema)
	}

	return config
}

// NewConversation opens a schema-bound session. The system instruction
// is set once here and not re-sent per turn.
func (g *GeminiGateway) NewConversation(_ context.Context, systemInstruction string, schema map[string]any) (Conversation, error) {
	return &geminiConversation{
		gateway: g,
		config:  g.generateConfig(systemInstruction, schema),
	}, nil
}

// GenerateOnce performs a stateless single-shot call.
func (g *GeminiGateway) GenerateOnce(ctx context.Context, prompt string, schema map[string]any) (string, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, g.generateConfig("", schema))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return result.Text(), nil
}

// geminiConversation keeps the turn history in process and replays it
// on every call, which is how the SDK models a chat session.
type geminiConversation struct {
	gateway *GeminiGateway
	config  *genai.GenerateContentConfig
	history []*genai.Content
}

func (c *geminiConversation) Send(ctx context.Context, text string) (string, error) {
	turn := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: text}},
	}
	contents := append(append([]*genai.Content{}, c.history...), turn)

	result, err := c.gateway.client.Models.GenerateContent(ctx, c.gateway.cfg.Model, contents, c.config)
	if err != nil {
		return "", fmt.Errorf("gemini send: %w", err)
	}

	reply := result.Text()
	c.history = append(contents, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{{Text: reply}},
	})
	return reply, nil
}

// buildGeminiSchema converts a JSON Schema definition map to a genai.Schema.
func buildGeminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		schema.Type = mapGeminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for k, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				schema.Properties[k] = buildGeminiSchema(propDef)
			}
		}
	}

	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if enums, ok := def["enum"].([]any); ok {
		for _, e := range enums {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}

	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = buildGeminiSchema(items)
	}

	return schema
}

func mapGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
