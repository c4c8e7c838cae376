// Package bridge implements the boundary core: a registry that lends opaque
// handles for loaded tokenizer instances to foreign callers, and the
// serialization of token id sequences into their comma-separated wire form.
//
// The registry never exposes instance memory. A caller holds only a handle
// value; every use is checked against the handle table, so a stale handle
// fails with ErrInvalidHandle instead of touching released state.
package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/example/go-tokbridge/internal/engine"
	"github.com/example/go-tokbridge/internal/handle"
)

// ErrInvalidHandle is returned for the Nil handle, a handle this registry
// never issued, or a handle already passed to Destroy.
var ErrInvalidHandle = errors.New("invalid or destroyed tokenizer handle")

// ErrInvalidText is returned when input text is not valid UTF-8.
var ErrInvalidText = errors.New("input text is not valid UTF-8")

// Opener loads a tokenizer model from a path.
type Opener func(path string) (engine.Tokenizer, error)

// Registry owns every tokenizer instance lent across the boundary and maps
// opaque handles to them. The table itself is safe to use from any thread,
// but calls sharing one handle must be serialized by the caller: that
// covers Encode against Encode, and Destroy against an in-flight Encode,
// which would otherwise close the instance under it.
type Registry struct {
	table *handle.Table
	open  Opener
}

// NewRegistry returns a registry loading models via engine.Open.
func NewRegistry() *Registry {
	return NewRegistryWithOpener(engine.Open)
}

// NewRegistryWithOpener returns a registry with a custom model loader,
// used by tests and by surfaces that pin a specific backend.
func NewRegistryWithOpener(open Opener) *Registry {
	return &Registry{table: handle.NewTable(), open: open}
}

// Load constructs a tokenizer instance from the model at path and returns
// a handle for it. On failure it returns handle.Nil and nothing that needs
// releasing.
func (r *Registry) Load(path string) (handle.Handle, error) {
	tok, err := r.open(path)
	if err != nil {
		return handle.Nil, fmt.Errorf("load model: %w", err)
	}

	return r.table.Put(tok), nil
}

// Encode tokenizes text with the instance h refers to and returns the ids
// as comma-separated decimals. The text is validated as UTF-8 before the
// engine sees it. On failure nothing is allocated for the caller.
func (r *Registry) Encode(h handle.Handle, text string) (string, error) {
	v, ok := r.table.Get(h)
	if !ok {
		return "", ErrInvalidHandle
	}

	if !utf8.ValidString(text) {
		return "", ErrInvalidText
	}

	ids, err := v.(engine.Tokenizer).Encode(text)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	return FormatIDs(ids), nil
}

// Destroy releases the instance h refers to and retires the handle. It is
// a no-op for handle.Nil, unknown handles, and already-destroyed handles,
// so cleanup paths stay safe after failed or repeated calls.
func (r *Registry) Destroy(h handle.Handle) {
	v, ok := r.table.Delete(h)
	if !ok {
		return
	}

	_ = v.(engine.Tokenizer).Close()
}

// Live returns the number of handles not yet destroyed.
func (r *Registry) Live() int {
	return r.table.Len()
}

// FormatIDs serializes token ids as base-10 decimals joined by single
// commas, in emission order, with no trailing separator. An empty sequence
// serializes to the empty string.
func FormatIDs(ids []uint32) string {
	if len(ids) == 0 {
		return ""
	}

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}

	return b.String()
}
