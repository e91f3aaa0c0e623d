// Package extractor turns raw document bytes into plain text. The strategy
// is chosen by the declared format tag; the bytes are never sniffed.
package extractor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding/charmap"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/models"
)

// Extract converts document bytes into plain text for the declared format.
// It is a pure function over its input.
func Extract(data []byte, format models.Format, maxBytes int) (string, error) {
	if len(data) == 0 {
		return "", apperrors.New(apperrors.CodeExtractionFailed)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return "", apperrors.New(apperrors.CodeExtractionFailed)
	}

	var (
		text string
		err  error
	)
	switch format {
	case models.FormatText:
		text, err = extractText(data)
	case models.FormatPDF:
		text, err = extractPDF(data)
	case models.FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return "", apperrors.New(apperrors.CodeUnsupportedFormat)
	}
	if err != nil {
		return "", err
	}
	// Empty decode is a malformed document. Whitespace-only text passes
	// through; the chunker classifies it as an empty document.
	if text == "" {
		return "", apperrors.New(apperrors.CodeExtractionFailed)
	}
	return text, nil
}

// extractText decodes plain text. Invalid UTF-8 falls back to Windows-1252
// and then Latin-1, in that order, so the result is deterministic for any
// byte sequence.
func extractText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(decoded), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExtractionFailed)
	}
	return string(decoded), nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExtractionFailed)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeExtractionFailed)
		}
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExtractionFailed)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return docxParagraphText(content), nil
}

// docxParagraphText pulls the run text out of word/document.xml, one line
// per paragraph.
func docxParagraphText(xmlContent string) string {
	var sb strings.Builder
	paragraphs := strings.Split(xmlContent, "</w:p>")
	for _, para := range paragraphs {
		text := runText(para)
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func runText(para string) string {
	var sb strings.Builder
	parts := strings.Split(para, "<w:t")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// Skip the rest of the opening tag, including attributes.
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		part = part[gt+1:]
		if end := strings.Index(part, "</w:t>"); end >= 0 {
			sb.WriteString(part[:end])
		}
	}
	return sb.String()
}
