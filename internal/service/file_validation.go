package service

import "fmt"

// Allowed submission MIME types mapped to the stored file type label.
var allowedSubmissionTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpeg",
	"image/png":       "png",
}

// FileValidation is the outcome of validating an upload before any network
// work happens. All violations are collected so the caller can present them
// in one message.
type FileValidation struct {
	Valid    bool
	FileType string
	Errors   []string
}

// ValidateFile checks a detected MIME type and size against the allowed set
// and the configured maximum. Violations accumulate rather than
// short-circuiting.
func ValidateFile(mimeType string, sizeBytes, maxBytes int64) FileValidation {
	result := FileValidation{Valid: true}

	fileType, ok := allowedSubmissionTypes[mimeType]
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported file type %q: allowed types are PDF, JPEG, and PNG", mimeType))
	}
	result.FileType = fileType

	if maxBytes > 0 && sizeBytes > maxBytes {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("file size %d bytes exceeds the %d byte limit", sizeBytes, maxBytes))
	}

	return result
}
