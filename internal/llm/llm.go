package llm

import (
	"context"

	"kitchen-ai/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, opts ...CallOption) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// CallOptions tunes a single completion call. Zero values leave the
// provider defaults in place.
type CallOptions struct {
	Temperature *float32
	MaxTokens   int
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float32) CallOption {
	return func(o *CallOptions) { o.Temperature = &t }
}

// WithMaxTokens caps the completion length for one call.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// ApplyOptions folds opts into a CallOptions value.
func ApplyOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
