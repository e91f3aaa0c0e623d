package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorLiteralRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1, 0, 3.5}
	parsed, err := parseVector(formatVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, parsed)
}

func TestParseVector_Malformed(t *testing.T) {
	for _, in := range []string{"", "0.1,0.2", "[0.1,0.2", "[a,b]"} {
		_, err := parseVector(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseVector_WithSpaces(t *testing.T) {
	parsed, err := parseVector(" [0.5, -0.5] ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, parsed)
}
