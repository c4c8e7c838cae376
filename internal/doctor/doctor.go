// Package doctor provides environment preflight checks for tokbridge.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ModelPath is the tokenizer model file to verify on disk.
	ModelPath string
	// Backend is the normalized engine backend name.
	Backend string
	// NativeLibraryPath is the shared library checked when Backend is "native".
	NativeLibraryPath string
	// ProbeModel loads the model and reports an error when it is unusable.
	// Nil skips the load probe.
	ProbeModel func(path string) error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- model file -------------------------------------------------------
	if cfg.ModelPath == "" {
		res.fail("model path: not configured")
		fmt.Fprintf(w, "%s model path: not configured\n", FailMark)
	} else if _, err := os.Stat(cfg.ModelPath); err != nil {
		res.fail(fmt.Sprintf("model file %q: %v", cfg.ModelPath, err))
		fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, cfg.ModelPath)
	} else {
		fmt.Fprintf(w, "%s model file: %s (%s)\n", PassMark, cfg.ModelPath, describeFormat(cfg.ModelPath))
	}

	// ---- native library ---------------------------------------------------
	if cfg.Backend == "native" {
		if cfg.NativeLibraryPath == "" {
			res.fail("native library: not configured")
			fmt.Fprintf(w, "%s native library: not configured (set engine.native_library_path)\n", FailMark)
		} else if _, err := os.Stat(cfg.NativeLibraryPath); err != nil {
			res.fail(fmt.Sprintf("native library %q: %v", cfg.NativeLibraryPath, err))
			fmt.Fprintf(w, "%s native library %s: not found\n", FailMark, cfg.NativeLibraryPath)
		} else {
			fmt.Fprintf(w, "%s native library: %s\n", PassMark, cfg.NativeLibraryPath)
		}
	} else {
		fmt.Fprintf(w, "%s native library: skipped (backend %s)\n", PassMark, cfg.Backend)
	}

	// ---- model load probe -------------------------------------------------
	if cfg.ProbeModel == nil {
		fmt.Fprintf(w, "%s model load: skipped\n", PassMark)
	} else if err := cfg.ProbeModel(cfg.ModelPath); err != nil {
		res.fail(fmt.Sprintf("model load: %v", err))
		fmt.Fprintf(w, "%s model load: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s model load: ok\n", PassMark)
	}

	return res
}

// describeFormat names the model family implied by the file extension.
func describeFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "huggingface tokenizer.json"
	case ".model", ".spm":
		return "sentencepiece"
	default:
		return "unrecognized format"
	}
}
