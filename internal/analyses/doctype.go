package analyses

import "strings"

// Supported document types.
const (
	DocTypeRental = "rental"
	DocTypeLoan   = "loan"
	DocTypeTOS    = "tos"
)

// ParseDocType normalizes and validates a document type value.
func ParseDocType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DocTypeRental:
		return DocTypeRental, nil
	case DocTypeLoan:
		return DocTypeLoan, nil
	case DocTypeTOS:
		return DocTypeTOS, nil
	default:
		return "", ErrInvalidDocType
	}
}
