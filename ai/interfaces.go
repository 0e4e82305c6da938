package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one provider
	// call. The returned slice has the same length and order as the input;
	// vectors align 1:1 with their texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces answer text from a system prompt and a user prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Complete invokes the generation capability once and returns the
	// generated text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Generator instances, ensuring they share configuration and resources.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
