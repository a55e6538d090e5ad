package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Texts []string `xml:"t"`
}

// ExtractDOCX joins paragraph text in document order, one paragraph per line.
func ExtractDOCX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read DOCX as ZIP: %v", ErrCorruptDocument, err)
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}

	if documentFile == nil {
		return "", fmt.Errorf("%w: document.xml not found in DOCX", ErrCorruptDocument)
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("%w: failed to open document.xml: %v", ErrCorruptDocument, err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read document.xml: %v", ErrCorruptDocument, err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("%w: failed to parse document.xml: %v", ErrCorruptDocument, err)
	}

	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		for _, run := range para.Runs {
			for _, t := range run.Texts {
				textBuilder.WriteString(t)
			}
		}
		textBuilder.WriteString("\n")
	}

	extractedText := cleanText(textBuilder.String())
	if extractedText == "" {
		return "", fmt.Errorf("%w: no text in DOCX", ErrEmptyDocument)
	}

	return extractedText, nil
}
