package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/docshelf/canopy/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// GenerateText produces a completion for the conversation.
func (c *ChatModel) GenerateText(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (string, error) {
	c.logger.Debug("generating completion", "messages", len(messages), "systemPromptLength", len(systemPrompt))

	content := make([]llms.MessageContent, 0, len(messages)+1)
	if systemPrompt != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		if msg.Role == ai.ChatRoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}

	response, err := c.client.GenerateContent(ctx, content)
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	if response == nil || len(response.Choices) == 0 {
		return "", errors.New("chat model returned no choices")
	}

	return response.Choices[0].Content, nil
}
