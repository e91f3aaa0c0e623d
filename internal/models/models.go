package models

import "fmt"

// Format is the declared document format. Extraction strategy is selected
// by this tag alone, never by sniffing the bytes.
type Format string

const (
	FormatText Format = "TEXT"
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
)

// ParseFormat maps a format label (or file extension) to a Format tag.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "TEXT", "text", "txt", ".txt":
		return FormatText, nil
	case "PDF", "pdf", ".pdf":
		return FormatPDF, nil
	case "DOCX", "docx", ".docx":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Document is a single submission. It lives for one request and is never
// persisted.
type Document struct {
	Bytes  []byte
	Format Format
	Text   string // normalized extracted text
}

// Chunk is one passage of the document. Start and End are rune offsets into
// the normalized extracted text; chunks may overlap but together cover the
// whole text with no gaps.
type Chunk struct {
	ID        int
	Text      string
	Start     int
	End       int
	Embedding []float32
}

// CorpusEntry is one reference passage from the prebuilt Wikipedia index.
// Entries are immutable at serving time.
type CorpusEntry struct {
	ID        string
	Title     string
	URL       string
	Text      string
	Embedding []float32
}

// MatchCandidate links one chunk to one corpus entry before merging.
// Similarity is cosine similarity rescaled to [0,1].
type MatchCandidate struct {
	ChunkID    int
	EntryID    string
	Similarity float64
}

// Match is a merged span of the document attributed to one corpus entry.
type Match struct {
	Start      int     `json:"start_offset"`
	End        int     `json:"end_offset"`
	EntryID    string  `json:"-"`
	Title      string  `json:"source_title"`
	URL        string  `json:"source_url"`
	Similarity float64 `json:"similarity"`
}

// SourceContribution is the aggregated share of one source in the report.
type SourceContribution struct {
	Title        string  `json:"source_title"`
	URL          string  `json:"source_url"`
	Contribution float64 `json:"contribution"`
	MatchCount   int     `json:"match_count"`
}

// Report is the final result for one document.
type Report struct {
	OverallScore  float64              `json:"overall_score"`
	IsPlagiarized bool                 `json:"is_plagiarized"`
	Matches       []Match              `json:"matches"`
	Sources       []SourceContribution `json:"sources,omitempty"`
	WordCount     int                  `json:"word_count"`
	CharCount     int                  `json:"character_count"`
}
