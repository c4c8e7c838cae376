//go:build linux || darwin

package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
)

// ErrNativeEncode is returned when the native library rejects an encode call.
var ErrNativeEncode = errors.New("native tokenizer encode failed")

// NativeTokenizer drives an external shared library exporting the
// tokenizer_load / tokenizer_encode / tokenizer_free_string /
// tokenizer_destroy C ABI. The library owns the instance; this wrapper only
// holds the opaque handle and copies each result out before freeing it with
// the library's own release function.
type NativeTokenizer struct {
	lib    uintptr
	handle uintptr

	encode     func(uintptr, string) uintptr
	freeString func(uintptr)
	destroy    func(uintptr)
}

// OpenNative loads the shared library at libraryPath and asks it to load
// the tokenizer model at modelPath.
func OpenNative(libraryPath, modelPath string) (Tokenizer, error) {
	if libraryPath == "" {
		return nil, errors.New("native tokenizer library path must not be empty")
	}

	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	lib, err := purego.Dlopen(libraryPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("open tokenizer library %q: %w", libraryPath, err)
	}

	var load func(string) uintptr

	t := &NativeTokenizer{lib: lib}
	purego.RegisterLibFunc(&load, lib, "tokenizer_load")
	purego.RegisterLibFunc(&t.encode, lib, "tokenizer_encode")
	purego.RegisterLibFunc(&t.freeString, lib, "tokenizer_free_string")
	purego.RegisterLibFunc(&t.destroy, lib, "tokenizer_destroy")

	t.handle = load(modelPath)
	if t.handle == 0 {
		_ = purego.Dlclose(lib)

		return nil, fmt.Errorf("native tokenizer rejected model %q", modelPath)
	}

	return t, nil
}

// Encode tokenizes text through the native library and parses the
// comma-separated decimal ids it returns.
func (t *NativeTokenizer) Encode(text string) ([]uint32, error) {
	if t.handle == 0 {
		return nil, errors.New("native tokenizer is closed")
	}

	p := t.encode(t.handle, text)
	if p == 0 {
		return nil, ErrNativeEncode
	}

	defer t.freeString(p)

	return parseIDs(goString(p))
}

// Close destroys the native instance and unloads the library.
func (t *NativeTokenizer) Close() error {
	if t.handle == 0 {
		return nil
	}

	t.destroy(t.handle)
	t.handle = 0

	if err := purego.Dlclose(t.lib); err != nil {
		return fmt.Errorf("close tokenizer library: %w", err)
	}

	return nil
}

// goString copies a NUL-terminated C string into Go memory. The pointer is
// foreign memory, so the copy must happen before the buffer is released.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}

	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}

	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

func parseIDs(s string) ([]uint32, error) {
	if s == "" {
		return []uint32{}, nil
	}

	parts := strings.Split(s, ",")

	ids := make([]uint32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse native token id %q: %w", part, err)
		}

		ids[i] = uint32(v)
	}

	return ids, nil
}
