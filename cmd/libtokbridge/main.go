// Command libtokbridge builds the tokenizer boundary layer as a C shared
// library (go build -buildmode=c-shared). The exported symbols mirror
// include/tokbridge.h; see that header for the ownership contract on every
// value crossing the boundary.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/example/go-tokbridge/internal/bridge"
	"github.com/example/go-tokbridge/internal/handle"
)

// registry is the single process-wide handle registry backing every
// exported call. Foreign callers only ever see integer handles; the
// instances themselves never leave Go memory.
var registry = bridge.NewRegistry()

// tokenizer_load loads a tokenizer model from path and returns a handle for
// it, or 0 when the path is unreadable or the model is malformed. A failed
// load allocates nothing the caller must release.
//
//export tokenizer_load
func tokenizer_load(path *C.char) C.uint64_t {
	if path == nil {
		return 0
	}

	h, err := registry.Load(C.GoString(path))
	if err != nil {
		return 0
	}

	return C.uint64_t(h)
}

// tokenizer_encode encodes text with the instance h refers to and returns a
// freshly allocated NUL-terminated string of comma-separated decimal token
// ids. Ownership of the string transfers to the caller, who must pass it to
// tokenizer_free_string exactly once. Returns NULL — allocating nothing —
// when h is invalid or destroyed, text is NULL or not valid UTF-8, or the
// engine rejects the input.
//
//export tokenizer_encode
func tokenizer_encode(h C.uint64_t, text *C.char) *C.char {
	if text == nil {
		return nil
	}

	out, err := registry.Encode(handle.Handle(h), C.GoString(text))
	if err != nil {
		return nil
	}

	// C.CString allocates with the C allocator; tokenizer_free_string
	// releases with the same allocator.
	return C.CString(out)
}

// tokenizer_free_string releases a string previously returned by
// tokenizer_encode. NULL is a no-op. Passing any other pointer, or the same
// string twice, is a caller contract violation.
//
//export tokenizer_free_string
func tokenizer_free_string(s *C.char) {
	if s == nil {
		return
	}

	C.free(unsafe.Pointer(s))
}

// tokenizer_destroy releases the instance h refers to and retires the
// handle. 0, unknown, and already-destroyed handles are no-ops, so cleanup
// code is safe to run unconditionally after a failed load.
//
//export tokenizer_destroy
func tokenizer_destroy(h C.uint64_t) {
	registry.Destroy(handle.Handle(h))
}

// tokenizer_live_handles reports the number of handles not yet destroyed.
// Intended for leak checks in embedding test suites.
//
//export tokenizer_live_handles
func tokenizer_live_handles() C.int {
	return C.int(registry.Live())
}

func main() {}
