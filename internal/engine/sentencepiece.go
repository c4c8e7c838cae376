package engine

import (
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// SentencePieceTokenizer wraps a pure-Go SentencePiece .model file.
// SentencePiece has no special-token insertion step of its own, so its
// output for a text is the plain subword id sequence.
type SentencePieceTokenizer struct {
	proc gosp.Sentencepiece
}

// NewSentencePieceTokenizer loads a SentencePiece model from the given path.
func NewSentencePieceTokenizer(path string) (*SentencePieceTokenizer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	proc, err := gosp.NewSentencepieceFromFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %q: %w", path, err)
	}

	return &SentencePieceTokenizer{proc: proc}, nil
}

// Encode tokenizes text and returns SentencePiece token ids.
func (t *SentencePieceTokenizer) Encode(text string) ([]uint32, error) {
	if text == "" {
		return []uint32{}, nil
	}

	ids := t.proc.TokenizeToIDs(text)

	result := make([]uint32, len(ids))
	for i, id := range ids {
		result[i] = uint32(id)
	}

	return result, nil
}

// Close releases nothing; the pure-Go backend holds only heap state.
func (t *SentencePieceTokenizer) Close() error { return nil }
