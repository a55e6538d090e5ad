package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatTXT  = "txt"
)

type Options struct {
	// MaxPages caps how many PDF pages are read.
	MaxPages int
	// ScanPages is the page count after which a PDF with under MinChars
	// characters is treated as image-based.
	ScanPages int
	MinChars  int
}

func DefaultOptions() Options {
	return Options{
		MaxPages:  20,
		ScanPages: 4,
		MinChars:  100,
	}
}

type Result struct {
	Text   string
	Format string
}

// Extract reads r from its current position and returns normalized text.
func Extract(r io.Reader, filename, contentType string, opts Options) (*Result, error) {
	format, err := DetectFormat(filename, contentType)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = ExtractPDF(data, opts)
	case FormatDOCX:
		text, err = ExtractDOCX(data)
	case FormatTXT:
		text, err = ExtractTXT(data)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Text: text, Format: format}, nil
}

// DetectFormat prefers the file extension and falls back to the declared
// content type.
func DetectFormat(filename, contentType string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".text":
		return FormatTXT, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch {
	case mediaType == "application/pdf":
		return FormatPDF, nil
	case isDOCXContentType(mediaType):
		return FormatDOCX, nil
	case isTXTContentType(mediaType):
		return FormatTXT, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
}

// isDOCXContentType handles the DOCX MIME variants browsers send.
func isDOCXContentType(contentType string) bool {
	switch contentType {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx":
		return true
	}
	return false
}

func isTXTContentType(contentType string) bool {
	switch contentType {
	case "text/plain", "text/txt", "application/txt", "application/x-txt":
		return true
	}
	return false
}

// cleanText normalizes line endings, drops NULs and blank lines, and trims.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	lines := strings.Split(text, "\n")

	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(cleanedLines, "\n"))
}
