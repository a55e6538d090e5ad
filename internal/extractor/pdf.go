package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
}

func (p pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p pdfPages) PageText(n int) (string, error) {
	page := p.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func ExtractPDF(data []byte, opts Options) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed PDF: %v", ErrCorruptDocument, r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create PDF reader: %v", ErrCorruptDocument, err)
	}

	return extractPages(pdfPages{reader: pdfReader}, opts)
}

func extractPages(src pageSource, opts Options) (string, error) {
	numPages := src.NumPage()
	if opts.MaxPages > 0 && numPages > opts.MaxPages {
		numPages = opts.MaxPages
	}

	var textBuilder strings.Builder
	chars := 0

	for i := 1; i <= numPages; i++ {
		text, err := src.PageText(i)
		if err == nil && text != "" {
			textBuilder.WriteString(text)
			textBuilder.WriteString("\n")
			chars += utf8.RuneCountInString(strings.TrimSpace(text))
		}

		if i == opts.ScanPages && chars < opts.MinChars {
			return "", fmt.Errorf("%w: %d characters in the first %d pages", ErrImageBasedDocument, chars, i)
		}
	}

	extractedText := cleanText(textBuilder.String())
	if utf8.RuneCountInString(extractedText) < opts.MinChars {
		return "", fmt.Errorf("%w: %d characters extracted from PDF", ErrInsufficientText, utf8.RuneCountInString(extractedText))
	}

	return extractedText, nil
}
