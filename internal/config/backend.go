package config

import (
	"fmt"
	"strings"
)

const (
	BackendAuto          = "auto"
	BackendHF            = "hf"
	BackendSentencePiece = "sentencepiece"
	BackendNative        = "native"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendAuto
	}
	switch backend {
	case BackendAuto, BackendHF, BackendSentencePiece, BackendNative:
		return backend, nil
	case "huggingface":
		return BackendHF, nil
	case "sp", "spm":
		return BackendSentencePiece, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s|%s|%s)",
			raw,
			BackendAuto,
			BackendHF,
			BackendSentencePiece,
			BackendNative,
		)
	}
}
