package analyses

import "context"

// Repo persists analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	List(ctx context.Context, limit, offset int) ([]Analysis, error)
	UpdateStorageKeys(ctx context.Context, analysisID, storageKey, extractedTextKey string) error
	UpdateStatus(ctx context.Context, analysisID, status string, result map[string]any, errorMessage *string) error
}
