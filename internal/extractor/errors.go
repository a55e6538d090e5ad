package extractor

import "errors"

// Extraction errors are user-correctable.
var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrCorruptDocument    = errors.New("document could not be read")
	ErrImageBasedDocument = errors.New("document appears to be image-based")
	ErrInsufficientText   = errors.New("insufficient extractable text")
	ErrEmptyDocument      = errors.New("document is empty")
)

// IsExtractionError reports whether err came from the extraction stage.
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCorruptDocument) ||
		errors.Is(err, ErrImageBasedDocument) ||
		errors.Is(err, ErrInsufficientText) ||
		errors.Is(err, ErrEmptyDocument)
}
