package analyses

import "errors"

var (
	// ErrNotFound indicates the analysis does not exist.
	ErrNotFound = errors.New("analysis not found")
	// ErrInvalidDocType indicates an unsupported document type was requested.
	ErrInvalidDocType = errors.New("unsupported document type")
	// ErrFileRequired indicates the upload form was missing the file part.
	ErrFileRequired = errors.New("no file provided")
	// ErrTextTooShort indicates extraction produced too little text to analyze.
	ErrTextTooShort = errors.New("could not extract enough text from the document")
	// ErrModelReply indicates the model returned something other than the
	// expected JSON analysis.
	ErrModelReply = errors.New("model returned an unusable analysis")
)
