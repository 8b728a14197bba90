// Command server runs the quiz scoring service and its offline tools.
//
// @title        elkquiz API
// @version      1.0
// @description  Psychometric quiz suites, submission scoring and narrative reports.
// @BasePath     /
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/elkquiz/internal/config"
	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "elkquiz",
		Short:        "Quiz scoring and report service",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (env vars override it)")

	root.AddCommand(
		newServeCommand(&configPath),
		newValidateCommand(&configPath),
		newScoreCommand(&configPath),
		newMCPCommand(&configPath),
	)
	return root
}

// loadConfig reads the config and sets up the process logger writing to w.
func loadConfig(path string, w io.Writer) (config.Config, *monitoring.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	logger := monitoring.NewLoggerTo(w, cfg.SlogLevel())
	slog.SetDefault(logger.Logger)
	return cfg, logger, nil
}
