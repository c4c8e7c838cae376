package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/example/go-tokbridge/internal/bridge"
	"github.com/example/go-tokbridge/internal/config"
	"github.com/example/go-tokbridge/internal/engine"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "encode [text...]",
		Short: "Encode text into comma-separated token ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			text, err := gatherText(args, fromStdin, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out, err := runEncode(cfg, text)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)

			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read text from stdin instead of arguments")

	return cmd
}

// gatherText joins positional arguments with single spaces, or reads the
// whole of stdin when requested.
func gatherText(args []string, fromStdin bool, stdin io.Reader) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	return strings.Join(args, " "), nil
}

// runEncode loads the configured model, encodes text, and releases the
// instance before returning.
func runEncode(cfg config.Config, text string) (string, error) {
	backend, err := config.NormalizeBackend(cfg.Engine.Backend)
	if err != nil {
		return "", err
	}

	reg := bridge.NewRegistryWithOpener(func(path string) (engine.Tokenizer, error) {
		return engine.OpenBackend(backend, path, cfg.Engine.NativeLibraryPath)
	})

	h, err := reg.Load(cfg.Paths.ModelPath)
	if err != nil {
		return "", err
	}
	defer reg.Destroy(h)

	return reg.Encode(h, text)
}
