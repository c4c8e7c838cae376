//go:build !(linux || darwin)

package engine

import "errors"

// OpenNative is unavailable on platforms without dlopen support.
func OpenNative(libraryPath, modelPath string) (Tokenizer, error) {
	return nil, errors.New("native tokenizer backend is not supported on this platform")
}
