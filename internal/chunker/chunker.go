// Package chunker normalizes extracted text and splits it into overlapping
// passages with stable rune offsets.
package chunker

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"plagiarism-checker/internal/apperrors"
	"plagiarism-checker/internal/models"
)

// Normalize applies the deterministic text normalization used everywhere in
// the system: NFKC, lowercase, whitespace collapsed to single spaces,
// trimmed. Corpus passages and submitted documents must pass through the
// same normalization so their embeddings are comparable.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)

	var sb strings.Builder
	sb.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// Chunk splits normalized text into a sliding window of passages. Offsets
// are rune indices into text; the chunks cover [0, len) with no gaps and
// the last chunk always ends at the text length. window and stride are rune
// counts; stride < window produces overlap. No break-point adjustment is
// applied so re-chunking the same text with the same configuration yields
// identical offsets.
func Chunk(text string, window, stride int) ([]models.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.New(apperrors.CodeEmptyDocument)
	}

	runes := []rune(text)
	n := len(runes)

	if n <= window {
		return []models.Chunk{{ID: 0, Text: text, Start: 0, End: n}}, nil
	}

	var chunks []models.Chunk
	id := 0
	for start := 0; start < n; start += stride {
		end := start + window
		if end > n {
			end = n
		}
		chunks = append(chunks, models.Chunk{
			ID:    id,
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		id++
		if end == n {
			break
		}
	}
	return chunks, nil
}
