package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order and of the same
	// length as the input texts; callers must treat a length mismatch as fatal.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	// ChatRoleUser is a message authored by the end user.
	ChatRoleUser ChatRole = "user"
	// ChatRoleAssistant is a message authored by the model.
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in an ordered conversation history.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatModel generates text from an ordered message list plus a system
// prompt built from retrieval context. The retrieval core's obligation
// ends at producing that context string; this interface is how the
// downstream chat feature consumes it.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// GenerateText produces a completion for the conversation.
	// Returns an error if generation fails.
	GenerateText(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// ChatModel instances, ensuring they share configuration and resources.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the text generation service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
