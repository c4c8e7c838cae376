package engine

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer wraps a HuggingFace-compatible tokenizer.json model.
type HFTokenizer struct {
	inner *tokenizer.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json file using the pure-Go tokenizer.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer model %q: %w", path, err)
	}

	return &HFTokenizer{inner: tk}, nil
}

// Encode tokenizes text with special tokens enabled, matching the reference
// implementation's encode(text, add_special_tokens=true).
func (t *HFTokenizer) Encode(text string) ([]uint32, error) {
	if t == nil || t.inner == nil {
		return nil, fmt.Errorf("tokenizer is not initialized")
	}

	encoding, err := t.inner.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	ids := make([]uint32, len(encoding.Ids))
	for i, id := range encoding.Ids {
		ids[i] = uint32(id)
	}

	return ids, nil
}

// Close releases nothing; the pure-Go backend holds only heap state.
func (t *HFTokenizer) Close() error { return nil }
