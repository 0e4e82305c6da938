package mock

import (
	"context"
	"fmt"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a canned answer that echoes the prompts.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	callCount        int
	lastSystemPrompt string
	lastUserPrompt   string
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Complete records the prompts and returns a deterministic canned answer.
func (m *MockGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.callCount++
	m.lastSystemPrompt = systemPrompt
	m.lastUserPrompt = userPrompt

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}

	return fmt.Sprintf("mock answer (%d bytes of context)", len(userPrompt)), nil
}

// CallCount returns the number of times Complete was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// LastSystemPrompt returns the system prompt from the most recent call.
func (m *MockGenerator) LastSystemPrompt() string {
	return m.lastSystemPrompt
}

// LastUserPrompt returns the user prompt from the most recent call.
func (m *MockGenerator) LastUserPrompt() string {
	return m.lastUserPrompt
}

// Reset clears recorded calls and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.lastSystemPrompt = ""
	m.lastUserPrompt = ""
	m.CompleteFunc = nil
}
