package analyzer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"tinyrag/internal/domain"
)

// DefaultEncoding is the byte-pair encoding used for chunk windows.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// BPETokenizer is a deterministic byte-pair tokenizer backed by tiktoken
// ranks compiled into the binary, so no network access is needed.
type BPETokenizer struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

func NewBPETokenizer(encoding string) (*BPETokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown token encoding %q: %v", domain.ErrInvalidConfig, encoding, err)
	}
	return &BPETokenizer{enc: enc, encoding: encoding}, nil
}

func (t *BPETokenizer) Encode(text string) []int {
	if text == "" {
		return nil
	}
	return t.enc.Encode(text, nil, nil)
}

// Decode maps tokens back to text. A window boundary can split a multi-byte
// character; the broken bytes become U+FFFD.
func (t *BPETokenizer) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.enc.Decode(tokens), "\uFFFD")
}

// CountTokens returns the exact token count of text.
func (t *BPETokenizer) CountTokens(text string) int {
	return len(t.Encode(text))
}

func (t *BPETokenizer) Encoding() string {
	return t.encoding
}
