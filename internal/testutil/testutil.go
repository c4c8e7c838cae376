// Package testutil provides shared skip helpers for fixture-dependent tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// fixture is absent, so the suite remains runnable in environments without
// real model files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RequireTokenizerJSON returns the path to a real HuggingFace tokenizer.json,
// skipping the test when none is available. It checks the
// TOKBRIDGE_TEST_TOKENIZER_JSON environment variable first, then walks up
// from the package directory looking for models/tokenizer.json.
func RequireTokenizerJSON(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv("TOKBRIDGE_TEST_TOKENIZER_JSON"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}

		tb.Skipf("tokenizer fixture not found at TOKBRIDGE_TEST_TOKENIZER_JSON=%q", p)
	}

	return findFixture(tb, filepath.Join("models", "tokenizer.json"))
}

// RequireSentencePieceModel returns the path to a real SentencePiece model,
// skipping the test when none is available. It checks the
// TOKBRIDGE_TEST_SP_MODEL environment variable first, then walks up from the
// package directory looking for models/tokenizer.model.
func RequireSentencePieceModel(tb testing.TB) string {
	tb.Helper()

	if p := os.Getenv("TOKBRIDGE_TEST_SP_MODEL"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}

		tb.Skipf("sentencepiece fixture not found at TOKBRIDGE_TEST_SP_MODEL=%q", p)
	}

	return findFixture(tb, filepath.Join("models", "tokenizer.model"))
}

// findFixture walks up from the current directory to the repository root
// looking for rel, skipping the test when it is absent everywhere.
func findFixture(tb testing.TB, rel string) string {
	tb.Helper()

	dir, err := filepath.Abs(".")
	if err != nil {
		tb.Fatalf("abs path: %v", err)
	}

	for {
		candidate := filepath.Join(dir, rel)

		_, err = os.Stat(candidate)
		if err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	tb.Skipf("%s not found; skipping fixture-dependent test", rel)

	return ""
}
