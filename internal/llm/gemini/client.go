package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"lexiguide-backend/internal/llm"
)

const defaultModel = "gemini-1.5-flash-latest"

// Client implements llm.Client using the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a new Gemini client.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Analyze runs the docType-specific analysis prompt in JSON mode.
func (c *Client) Analyze(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	prompt, err := llm.BuildAnalysisPrompt(input.DocType, input.Language, input.DocumentText)
	if err != nil {
		return nil, err
	}

	model := c.client.GenerativeModel(c.model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	content := llm.StripCodeFence(textFromResponse(resp))
	if content == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("invalid JSON from gemini")
	}
	return json.RawMessage(content), nil
}

// Answer runs the document Q&A prompt and returns the answer text verbatim.
func (c *Client) Answer(ctx context.Context, input llm.AnswerInput) (string, error) {
	prompt := llm.BuildChatPrompt(input.DocumentText, input.Question, input.Language)

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	answer := strings.TrimSpace(textFromResponse(resp))
	if answer == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return answer, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func textFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

var _ llm.Client = (*Client)(nil)
