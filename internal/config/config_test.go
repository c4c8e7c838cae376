package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

// newFlagBinder creates a FlagSet with all config flags registered at their defaults.
func newFlagBinder(defaults Config) *fakeBinder {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	return &fakeBinder{fs: fs}
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.ModelPath != "models/tokenizer.json" {
		t.Errorf("ModelPath = %q; want %q", cfg.Paths.ModelPath, "models/tokenizer.json")
	}

	if cfg.Engine.Backend != "auto" {
		t.Errorf("Engine.Backend = %q; want %q", cfg.Engine.Backend, "auto")
	}

	if cfg.Engine.NativeLibraryPath != "" {
		t.Errorf("Engine.NativeLibraryPath = %q; want empty", cfg.Engine.NativeLibraryPath)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":8080")
	}

	if cfg.Server.ShutdownTimeout != 30 {
		t.Errorf("Server.ShutdownTimeout = %d; want 30", cfg.Server.ShutdownTimeout)
	}

	if cfg.Server.MaxTextBytes != 4096 {
		t.Errorf("Server.MaxTextBytes = %d; want 4096", cfg.Server.MaxTextBytes)
	}

	if cfg.Server.RequestTimeout != 60 {
		t.Errorf("Server.RequestTimeout = %d; want 60", cfg.Server.RequestTimeout)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}
}

// --- NormalizeBackend ---

func TestNormalizeBackend(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"auto canonical", "auto", "auto", false},
		{"hf canonical", "hf", "hf", false},
		{"huggingface alias", "huggingface", "hf", false},
		{"sentencepiece canonical", "sentencepiece", "sentencepiece", false},
		{"sp alias", "sp", "sentencepiece", false},
		{"spm alias", "spm", "sentencepiece", false},
		{"native canonical", "native", "native", false},
		{"uppercase", "HF", "hf", false},
		{"alias with spaces", "  spm  ", "sentencepiece", false},
		{"empty defaults to auto", "", "auto", false},
		{"whitespace defaults to auto", "   ", "auto", false},
		{"invalid value", "bpe", "", true},
		{"invalid with spaces", "  bad  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBackend(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeBackend(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeBackend(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeBackend(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	// Spot-check a few flags are registered with correct defaults.
	checks := []struct {
		flag string
		want string
	}{
		{"paths-model-path", "models/tokenizer.json"},
		{"engine-backend", "auto"},
		{"server-listen-addr", ":8080"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	binder := newFlagBinder(defaults)

	cfg, err := Load(LoadOptions{
		Cmd:      binder,
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.ModelPath != defaults.Paths.ModelPath {
		t.Errorf("ModelPath = %q; want %q", cfg.Paths.ModelPath, defaults.Paths.ModelPath)
	}

	if cfg.Engine.Backend != defaults.Engine.Backend {
		t.Errorf("Engine.Backend = %q; want %q", cfg.Engine.Backend, defaults.Engine.Backend)
	}

	if cfg.LogLevel != defaults.LogLevel {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, defaults.LogLevel)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	err := fs.Parse([]string{
		"--engine-backend=hf",
		"--server-max-text-bytes=8192",
		"--log-level=debug",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{
		Cmd:      &fakeBinder{fs: fs},
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.Backend != "hf" {
		t.Errorf("Engine.Backend = %q; want %q", cfg.Engine.Backend, "hf")
	}

	if cfg.Server.MaxTextBytes != 8192 {
		t.Errorf("Server.MaxTextBytes = %d; want 8192", cfg.Server.MaxTextBytes)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TOKBRIDGE_LOG_LEVEL", "warn")
	t.Setenv("TOKBRIDGE_SERVER_LISTEN_ADDR", ":9999")

	defaults := DefaultConfig()

	cfg, err := Load(LoadOptions{
		Defaults: defaults,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}
}

func TestLoad_NativeLibEnvAlias(t *testing.T) {
	t.Setenv("TOKBRIDGE_NATIVE_LIB", "/opt/lib/libtokenizers.so")

	cfg, err := Load(LoadOptions{
		Defaults: DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.NativeLibraryPath != "/opt/lib/libtokenizers.so" {
		t.Errorf("NativeLibraryPath = %q; want %q", cfg.Engine.NativeLibraryPath, "/opt/lib/libtokenizers.so")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "tokbridge.yaml")

	content := `
log_level: error
paths:
  model_path: /models/bert/tokenizer.json
server:
  listen_addr: ":7070"
  max_text_bytes: 1024
`
	if err := os.WriteFile(cfgFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(LoadOptions{
		ConfigFile: cfgFile,
		Defaults:   DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Paths.ModelPath != "/models/bert/tokenizer.json" {
		t.Errorf("ModelPath = %q; want %q", cfg.Paths.ModelPath, "/models/bert/tokenizer.json")
	}

	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":7070")
	}

	if cfg.Server.MaxTextBytes != 1024 {
		t.Errorf("Server.MaxTextBytes = %d; want 1024", cfg.Server.MaxTextBytes)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/tokbridge.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Fatal("Load() with missing explicit config file should fail")
	}
}
