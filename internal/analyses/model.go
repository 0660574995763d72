package analyses

import "time"

// Analysis statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Analysis is one analyzed document and its result.
type Analysis struct {
	ID               string         `json:"id"`
	FileName         string         `json:"fileName"`
	DocType          string         `json:"docType"`
	Language         string         `json:"language"`
	MimeType         string         `json:"mimeType"`
	SizeBytes        int64          `json:"sizeBytes"`
	StorageKey       string         `json:"-"`
	ExtractedTextKey string         `json:"-"`
	Status           string         `json:"status"`
	Result           map[string]any `json:"result,omitempty"`
	ErrorMessage     *string        `json:"errorMessage,omitempty"`
	Provider         string         `json:"provider,omitempty"`
	Model            string         `json:"model,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}
