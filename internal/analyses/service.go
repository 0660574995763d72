package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexiguide-backend/internal/extract"
	"lexiguide-backend/internal/llm"
	"lexiguide-backend/internal/shared/metrics"
	"lexiguide-backend/internal/shared/storage/object"
	"lexiguide-backend/internal/shared/telemetry"
	"lexiguide-backend/internal/shared/util"
)

// minExtractedChars is the minimum amount of text a document must yield
// before it is worth sending to the model. Scanned image PDFs typically
// fall below this.
const minExtractedChars = 50

// Service implements the document analysis flow.
type Service struct {
	Repo     Repo
	Store    object.ObjectStore
	LLM      llm.Client
	Provider string
	Model    string
	Timeout  time.Duration
}

// NewService constructs a Service.
func NewService(repo Repo, store object.ObjectStore, client llm.Client, provider, model string, timeout time.Duration) *Service {
	return &Service{
		Repo:     repo,
		Store:    store,
		LLM:      client,
		Provider: provider,
		Model:    model,
		Timeout:  timeout,
	}
}

// AnalyzeRequest carries one uploaded document through the analysis flow.
type AnalyzeRequest struct {
	FileName  string
	DocType   string
	Language  string
	Data      []byte
	RequestID string
}

// AnalyzeResult is the outcome of a completed analysis.
type AnalyzeResult struct {
	Analysis     Analysis
	DocumentText string
}

// Analyze stores the upload, extracts its text, runs the model and persists
// the outcome. The whole flow happens within the request.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	docType, err := ParseDocType(req.DocType)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if len(req.Data) == 0 {
		return AnalyzeResult{}, ErrFileRequired
	}

	fileName, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("%w: %v", ErrFileRequired, err)
	}

	metrics.IncAnalysisStarted()
	startedAt := metrics.NowMillis()

	// The record exists before storage and extraction so every accepted
	// upload shows up in history, including the ones that fail.
	analysis := Analysis{
		ID:        uuid.NewString(),
		FileName:  fileName,
		DocType:   docType,
		Language:  normalizeLanguage(req.Language),
		MimeType:  http.DetectContentType(req.Data),
		SizeBytes: int64(len(req.Data)),
		Status:    StatusProcessing,
		Provider:  s.Provider,
		Model:     s.Model,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		metrics.IncAnalysisFailed()
		return AnalyzeResult{}, fmt.Errorf("persist analysis: %w", err)
	}

	storageKey, _, mimeType, err := s.Store.Save(ctx, fileName, bytes.NewReader(req.Data))
	if err != nil {
		err = fmt.Errorf("store upload: %w", err)
		s.markFailed(ctx, analysis.ID, err)
		metrics.IncAnalysisFailed()
		return AnalyzeResult{}, err
	}
	analysis.StorageKey = storageKey
	if mimeType != "" {
		analysis.MimeType = mimeType
	}

	text, err := extract.TextFromBytes(ctx, req.Data, mimeType, fileName)
	if err != nil {
		s.markFailed(ctx, analysis.ID, err)
		metrics.IncAnalysisFailed()
		return AnalyzeResult{}, err
	}
	if len(strings.TrimSpace(text)) < minExtractedChars {
		s.markFailed(ctx, analysis.ID, ErrTextTooShort)
		metrics.IncAnalysisFailed()
		return AnalyzeResult{}, ErrTextTooShort
	}

	extractedKey := storageKey + ".extracted.txt"
	if _, err := s.Store.SaveWithKey(ctx, extractedKey, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		telemetry.Warn("analysis.extracted_text_store_failed", map[string]any{
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		extractedKey = ""
	}
	analysis.ExtractedTextKey = extractedKey

	if err := s.Repo.UpdateStorageKeys(ctx, analysis.ID, storageKey, extractedKey); err != nil {
		telemetry.Warn("analysis.storage_keys_update_failed", map[string]any{
			"request_id":  req.RequestID,
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}

	result, err := s.runModel(ctx, analysis, text, req.RequestID)
	if err != nil {
		s.markFailed(ctx, analysis.ID, err)
		metrics.IncAnalysisFailed()
		return AnalyzeResult{}, err
	}

	if err := s.Repo.UpdateStatus(ctx, analysis.ID, StatusCompleted, result, nil); err != nil {
		telemetry.Error("analysis.update_failed", map[string]any{
			"request_id":  req.RequestID,
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}
	analysis.Status = StatusCompleted
	analysis.Result = result

	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(metrics.NowMillis() - startedAt)
	telemetry.Info("analysis.completed", map[string]any{
		"request_id":  req.RequestID,
		"analysis_id": analysis.ID,
		"doc_type":    docType,
		"size_bytes":  analysis.SizeBytes,
	})

	return AnalyzeResult{Analysis: analysis, DocumentText: text}, nil
}

// Get returns one analysis by ID.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	return s.Repo.GetByID(ctx, analysisID)
}

// List returns analyses ordered newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) runModel(ctx context.Context, analysis Analysis, text, requestID string) (map[string]any, error) {
	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	client := llm.WithRetry(s.LLM, requestID)
	raw, err := client.Analyze(callCtx, llm.AnalyzeInput{
		DocType:      analysis.DocType,
		Language:     analysis.Language,
		DocumentText: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelReply, err)
	}

	cleaned := llm.StripCodeFence(string(raw))
	result := map[string]any{}
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelReply, err)
	}
	return result, nil
}

func (s *Service) markFailed(ctx context.Context, analysisID string, cause error) {
	msg := cause.Error()
	if err := s.Repo.UpdateStatus(ctx, analysisID, StatusFailed, nil, &msg); err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.Error("analysis.mark_failed", map[string]any{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
}

func normalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "English"
	}
	return language
}
