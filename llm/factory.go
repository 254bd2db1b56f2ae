package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewProvider builds the provider registered under name
func NewProvider(ctx context.Context, name string, config Config) (Provider, error) {
	switch strings.ToLower(name) {
	case "", "gemini", "google":
		return NewGeminiProvider(ctx, config)
	case "openai":
		return NewOpenAIProvider(config)
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
