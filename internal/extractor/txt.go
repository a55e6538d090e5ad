package extractor

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExtractTXT decodes UTF-8 (or BOM-marked UTF-16). Invalid byte sequences
// become U+FFFD instead of failing.
func ExtractTXT(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty text file", ErrEmptyDocument)
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode text file: %v", ErrCorruptDocument, err)
	}

	text = cleanText(text)
	if text == "" {
		return "", fmt.Errorf("%w: text file has no content", ErrEmptyDocument)
	}

	return text, nil
}

func decodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
