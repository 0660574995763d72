package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

const analysisColumns = `id, file_name, doc_type, language, mime_type, size_bytes, storage_key,
       extracted_text_key, status, result, error_message, provider, model,
       created_at, completed_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (
	id, file_name, doc_type, language, mime_type, size_bytes, storage_key,
	extracted_text_key, status, result, provider, model, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var payload any
	if analysis.Result != nil {
		raw, err := json.Marshal(analysis.Result)
		if err != nil {
			return err
		}
		payload = raw
	}

	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.FileName,
		analysis.DocType,
		analysis.Language,
		analysis.MimeType,
		analysis.SizeBytes,
		analysis.StorageKey,
		analysis.ExtractedTextKey,
		analysis.Status,
		payload,
		analysis.Provider,
		analysis.Model,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	query := `
SELECT ` + analysisColumns + `
FROM analyses
WHERE id = $1
LIMIT 1`

	row := r.DB.QueryRowContext(ctx, query, analysisID)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Analysis{}, ErrNotFound
		}
		return Analysis{}, err
	}
	return a, nil
}

// List returns analyses ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Analysis, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + analysisColumns + `
FROM analyses
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStorageKeys records where the upload and its extracted text landed.
func (r *PGRepo) UpdateStorageKeys(ctx context.Context, analysisID, storageKey, extractedTextKey string) error {
	const query = `
UPDATE analyses
SET storage_key = $1,
    extracted_text_key = $2,
    updated_at = now()
WHERE id = $3`

	res, err := r.DB.ExecContext(ctx, query, storageKey, extractedTextKey, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus updates status, result and error message, stamping
// completed_at when the analysis reaches a terminal status.
func (r *PGRepo) UpdateStatus(ctx context.Context, analysisID, status string, result map[string]any, errorMessage *string) error {
	const query = `
UPDATE analyses
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_message = COALESCE($3::text, error_message),
    completed_at = CASE
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $4`

	var payload any
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return err
		}
		payload = raw
	}

	res, err := r.DB.ExecContext(ctx, query, status, payload, errorMessage, analysisID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var result sql.NullString
	var errorMessage sql.NullString
	var provider sql.NullString
	var model sql.NullString
	var completedAt sql.NullTime
	var updatedAt sql.NullTime

	if err := row.Scan(
		&a.ID,
		&a.FileName,
		&a.DocType,
		&a.Language,
		&a.MimeType,
		&a.SizeBytes,
		&a.StorageKey,
		&a.ExtractedTextKey,
		&a.Status,
		&result,
		&errorMessage,
		&provider,
		&model,
		&a.CreatedAt,
		&completedAt,
		&updatedAt,
	); err != nil {
		return Analysis{}, err
	}

	if result.Valid {
		a.Result = map[string]any{}
		if err := json.Unmarshal([]byte(result.String), &a.Result); err != nil {
			a.Result = nil
		}
	}
	if errorMessage.Valid {
		a.ErrorMessage = &errorMessage.String
	}
	if provider.Valid {
		a.Provider = provider.String
	}
	if model.Valid {
		a.Model = model.String
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if updatedAt.Valid {
		a.UpdatedAt = &updatedAt.Time
	}
	return a, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
