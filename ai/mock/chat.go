package mock

import (
	"context"
	"fmt"

	"github.com/docshelf/canopy/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via a function field.
type MockChatModel struct {
	// GenerateTextFunc is called by GenerateText if set.
	// If nil, returns a canned echo of the last user message.
	GenerateTextFunc func(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (string, error)

	callCount int
}

// NewMockChatModel creates a mock chat model with default echo behavior.
// Note: Returns concrete type to allow test assertions via CallCount().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// GenerateText produces a canned completion unless a custom function is set.
func (m *MockChatModel) GenerateText(ctx context.Context, systemPrompt string, messages []ai.ChatMessage) (string, error) {
	m.callCount++

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, systemPrompt, messages)
	}

	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.ChatRoleUser {
			last = messages[i].Content
			break
		}
	}
	return fmt.Sprintf("mock answer to: %s", last), nil
}

// CallCount returns the number of times GenerateText was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.GenerateTextFunc = nil
}
