package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts hosted generative-model providers.
type Client interface {
	// Analyze sends a document analysis prompt and returns the model's reply
	// as raw JSON. Implementations request JSON output from the provider but
	// must still tolerate fenced or otherwise decorated replies.
	Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
	// Answer sends a document Q&A prompt and returns the model's answer text.
	Answer(ctx context.Context, input AnswerInput) (string, error)
}

// AnalyzeInput captures the inputs for one document analysis call.
type AnalyzeInput struct {
	DocType      string
	Language     string
	DocumentText string
}

// AnswerInput captures the inputs for one chat turn. Prior turns are not
// resent; the document text is the model's only context.
type AnswerInput struct {
	DocumentText string
	Question     string
	Language     string
}

// ErrNotConfigured is returned by the placeholder client when no provider
// API key is available.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// Analyze returns ErrNotConfigured.
func (PlaceholderClient) Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}

// Answer returns ErrNotConfigured.
func (PlaceholderClient) Answer(ctx context.Context, input AnswerInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotConfigured
}
