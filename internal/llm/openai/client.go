package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"lexiguide-backend/internal/llm"
)

const defaultModel = "gpt-4o-mini"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{api: openai.NewClient(apiKey), model: model}, nil
}

// Analyze runs the docType-specific analysis prompt with JSON response format.
func (c *Client) Analyze(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	prompt, err := llm.BuildAnalysisPrompt(input.DocType, input.Language, input.DocumentText)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	content := llm.StripCodeFence(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("openai response empty content")
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("invalid JSON from openai")
	}
	return json.RawMessage(content), nil
}

// Answer runs the document Q&A prompt and returns the answer text verbatim.
func (c *Client) Answer(ctx context.Context, input llm.AnswerInput) (string, error) {
	prompt := llm.BuildChatPrompt(input.DocumentText, input.Question, input.Language)

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	return answer, nil
}

var _ llm.Client = (*Client)(nil)
