package analyses

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Analysis
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: map[string]Analysis{}}
}

// Create stores a new analysis.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[analysis.ID] = analysis
	return nil
}

// GetByID returns an analysis by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// List returns analyses ordered newest-first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Analysis, 0, len(r.items))
	for _, a := range r.items {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []Analysis{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// UpdateStorageKeys records where the upload and its extracted text landed.
func (r *MemoryRepo) UpdateStorageKeys(ctx context.Context, analysisID, storageKey, extractedTextKey string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[analysisID]
	if !ok {
		return ErrNotFound
	}
	a.StorageKey = storageKey
	a.ExtractedTextKey = extractedTextKey
	now := time.Now().UTC()
	a.UpdatedAt = &now
	r.items[analysisID] = a
	return nil
}

// UpdateStatus updates status, result and error message.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, analysisID, status string, result map[string]any, errorMessage *string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[analysisID]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	if result != nil {
		a.Result = result
	}
	if errorMessage != nil {
		a.ErrorMessage = errorMessage
	}
	now := time.Now().UTC()
	if status == StatusCompleted || status == StatusFailed {
		a.CompletedAt = &now
	}
	a.UpdatedAt = &now
	r.items[analysisID] = a
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
