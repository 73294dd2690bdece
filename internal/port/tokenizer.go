package port

// Tokenizer maps text to integer token ids and back with a fixed scheme.
type Tokenizer interface {
	Encode(text string) []int

	// Decode never fails; partial multi-byte sequences are replaced.
	Decode(tokens []int) string
}
