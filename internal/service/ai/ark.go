package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ArkGateway implements Gateway on an eino ChatModel (Ark). Ark has no
// native structured-output mode, so the JSON schema is embedded in the
// system instruction and the decoder's repair pass carries correctness.
type ArkGateway struct {
	chatModel model.ChatModel
}

// NewArkGateway wraps an already-configured eino chat model.
func NewArkGateway(chatModel model.ChatModel) *ArkGateway {
	return &ArkGateway{chatModel: chatModel}
}

// NewConversation opens a session whose history starts with the system
// instruction plus the schema contract.
func (g *ArkGateway) NewConversation(_ context.Context, systemInstruction string, schemaDef map[string]any) (Conversation, error) {
	system, err := embedSchema(systemInstruction, schemaDef)
	if err != nil {
		return nil, err
	}

	return &arkConversation{
		gateway: g,
		history: []*schema.Message{schema.SystemMessage(system)},
	}, nil
}

// GenerateOnce performs a stateless single-shot call.
func (g *ArkGateway) GenerateOnce(ctx context.Context, prompt string, schemaDef map[string]any) (string, error) {
	text, err := embedSchema(prompt, schemaDef)
	if err != nil {
		return "", err
	}

	msg, err := g.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(text)})
	if err != nil {
		return "", fmt.Errorf("ark generate: %w", err)
	}
	return msg.Content, nil
}

type arkConversation struct {
	gateway *ArkGateway
	history []*schema.Message
}

func (c *arkConversation) Send(ctx context.Context, text string) (string, error) {
	c.history = append(c.history, schema.UserMessage(text))

	msg, err := c.gateway.chatModel.Generate(ctx, c.history)
	if err != nil {
		// Drop the unanswered turn so a retry does not double it.
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("ark send: %w", err)
	}

	c.history = append(c.history, schema.AssistantMessage(msg.Content, nil))
	return msg.Content, nil
}

func embedSchema(text string, schemaDef map[string]any) (string, error) {
	if schemaDef == nil {
		return text, nil
	}

	raw, err := json.Marshal(schemaDef)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	return text + "\n\nRespond with a single JSON object matching this schema, and nothing else:\n" + string(raw), nil
}
