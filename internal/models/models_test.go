package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"txt":   FormatText,
		".txt":  FormatText,
		"TEXT":  FormatText,
		"pdf":   FormatPDF,
		".pdf":  FormatPDF,
		"docx":  FormatDOCX,
		".docx": FormatDOCX,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("rtf")
	assert.Error(t, err)
}
