package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBPETokenizer_RoundTrip(t *testing.T) {
	tok, err := NewBPETokenizer(DefaultEncoding)
	require.NoError(t, err)

	text := "Apple Inc. reported net sales of $383.3 billion for fiscal 2023."
	tokens := tok.Encode(text)
	require.NotEmpty(t, tokens)
	assert.Equal(t, text, tok.Decode(tokens))
	assert.Equal(t, len(tokens), tok.CountTokens(text))
}

func TestBPETokenizer_Deterministic(t *testing.T) {
	tok, err := NewBPETokenizer("")
	require.NoError(t, err)

	text := strings.Repeat("supply chain risk ", 20)
	assert.Equal(t, tok.Encode(text), tok.Encode(text))
}

func TestBPETokenizer_EmptyText(t *testing.T) {
	tok, err := NewBPETokenizer(DefaultEncoding)
	require.NoError(t, err)

	assert.Empty(t, tok.Encode(""))
	assert.Equal(t, "", tok.Decode(nil))
}

func TestBPETokenizer_PartialRuneIsReplaced(t *testing.T) {
	tok, err := NewBPETokenizer(DefaultEncoding)
	require.NoError(t, err)

	tokens := tok.Encode("日本語のテキスト")
	for i := 1; i <= len(tokens); i++ {
		out := tok.Decode(tokens[:i])
		assert.True(t, isValidUTF8(out), "prefix %d decoded to invalid UTF-8", i)
	}
}

func TestNewBPETokenizer_UnknownEncoding(t *testing.T) {
	_, err := NewBPETokenizer("no_such_encoding")
	assert.Error(t, err)
}

func isValidUTF8(s string) bool {
	return strings.ToValidUTF8(s, "") == s
}
