package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lexiguide-backend/internal/llm"
	"lexiguide-backend/internal/shared/metrics"
	"lexiguide-backend/internal/shared/telemetry"
)

// ErrQuestionRequired indicates the chat request carried no question.
var ErrQuestionRequired = errors.New("question is required")

// ErrModelReply indicates the model failed to produce an answer.
var ErrModelReply = errors.New("model returned an unusable answer")

// Service answers questions about a previously analyzed document.
type Service struct {
	LLM     llm.Client
	Timeout time.Duration
}

// NewService constructs a Service.
func NewService(client llm.Client, timeout time.Duration) *Service {
	return &Service{LLM: client, Timeout: timeout}
}

// Request is one chat turn. The document text is resent every turn; no
// conversation state is kept server-side.
type Request struct {
	DocumentText string
	Question     string
	Language     string
	RequestID    string
}

// Answer runs one chat turn against the model.
func (s *Service) Answer(ctx context.Context, req Request) (string, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return "", ErrQuestionRequired
	}

	metrics.IncChatTurn()
	startedAt := metrics.NowMillis()

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	client := llm.WithRetry(s.LLM, req.RequestID)
	answer, err := client.Answer(callCtx, llm.AnswerInput{
		DocumentText: req.DocumentText,
		Question:     question,
		Language:     req.Language,
	})
	if err != nil {
		metrics.IncChatFailed()
		return "", fmt.Errorf("%w: %v", ErrModelReply, err)
	}

	metrics.ObserveChatDurationMs(metrics.NowMillis() - startedAt)
	telemetry.Info("chat.answered", map[string]any{
		"request_id": req.RequestID,
	})
	return answer, nil
}
