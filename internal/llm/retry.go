package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"lexiguide-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

type retryingClient struct {
	base      Client
	requestID string
}

// WithRetry wraps a client so transient transport failures are retried once.
// Failures of the model's content (bad JSON, empty reply) are not retried here.
func WithRetry(base Client, requestID string) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, requestID: requestID}
}

func (r retryingClient) Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	resp, err := r.base.Analyze(ctx, input)
	if err == nil || !shouldRetry(err) {
		return resp, err
	}
	if err := r.wait(ctx, err); err != nil {
		return nil, err
	}
	return r.base.Analyze(ctx, input)
}

func (r retryingClient) Answer(ctx context.Context, input AnswerInput) (string, error) {
	resp, err := r.base.Answer(ctx, input)
	if err == nil || !shouldRetry(err) {
		return resp, err
	}
	if err := r.wait(ctx, err); err != nil {
		return "", err
	}
	return r.base.Answer(ctx, input)
}

func (r retryingClient) wait(ctx context.Context, cause error) error {
	telemetry.Warn("llm.retry", map[string]any{
		"request_id": r.requestID,
		"error":      cause.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "client.timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "unexpected eof") {
		return true
	}

	return false
}
