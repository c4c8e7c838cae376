// Package engine adapts concrete tokenization backends behind a single
// load/encode contract. The boundary layer treats every backend as a black
// box that turns text into token ids; which implementation serves a given
// model file is decided here, by backend name or file extension.
package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrEmptyPath is returned when a loader is called with an empty model path.
var ErrEmptyPath = errors.New("tokenizer model path must not be empty")

// ErrUnknownFormat is returned when no backend claims the model file.
var ErrUnknownFormat = errors.New("unrecognized tokenizer model format")

// Tokenizer encodes text into token ids. Implementations are not safe for
// concurrent Encode calls on one instance unless documented otherwise;
// callers serialize per instance. Close releases backend state and must be
// called exactly once when the instance is no longer needed.
type Tokenizer interface {
	// Encode tokenizes text, with special tokens included where the
	// backend supports them, and returns the ids in emission order.
	Encode(text string) ([]uint32, error)

	// Close releases all resources held by the instance.
	Close() error
}

// Backend names accepted by OpenBackend.
const (
	BackendAuto          = "auto"
	BackendHF            = "hf"
	BackendSentencePiece = "sentencepiece"
	BackendNative        = "native"
)

// Open loads a tokenizer model, choosing the backend from the file
// extension: .json loads as a HuggingFace tokenizer, .model and .spm as
// SentencePiece. It fails with ErrUnknownFormat for anything else.
func Open(path string) (Tokenizer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewHFTokenizer(path)
	case ".model", ".spm":
		return NewSentencePieceTokenizer(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// OpenBackend loads a tokenizer model with an explicitly named backend.
// The native backend additionally needs the shared library path; the other
// backends ignore it.
func OpenBackend(backend, path, nativeLibrary string) (Tokenizer, error) {
	switch backend {
	case "", BackendAuto:
		return Open(path)
	case BackendHF:
		return NewHFTokenizer(path)
	case BackendSentencePiece:
		return NewSentencePieceTokenizer(path)
	case BackendNative:
		return OpenNative(nativeLibrary, path)
	default:
		return nil, fmt.Errorf("unknown engine backend %q (want auto|hf|sentencepiece|native)", backend)
	}
}
