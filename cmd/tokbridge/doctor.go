package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/go-tokbridge/internal/config"
	"github.com/example/go-tokbridge/internal/doctor"
	"github.com/example/go-tokbridge/internal/engine"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local model and engine checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			backend, err := config.NormalizeBackend(cfg.Engine.Backend)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "backend: %s\n", backend)

			dcfg := doctor.Config{
				ModelPath:         cfg.Paths.ModelPath,
				Backend:           backend,
				NativeLibraryPath: cfg.Engine.NativeLibraryPath,
				ProbeModel: func(path string) error {
					tok, err := engine.OpenBackend(backend, path, cfg.Engine.NativeLibraryPath)
					if err != nil {
						return err
					}

					return tok.Close()
				},
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}
