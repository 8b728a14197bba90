package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/elkquiz/internal/analysis"
	"github.com/ZanzyTHEbar/elkquiz/internal/catalog"
	"github.com/ZanzyTHEbar/elkquiz/internal/mcptools"
	"github.com/ZanzyTHEbar/elkquiz/internal/quiz"
	"github.com/ZanzyTHEbar/elkquiz/internal/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath, os.Stdout)
	if err != nil {
		return err
	}
	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to load catalog", "error", err, "suites_dir", cfg.SuitesDir)
		return err
	}
	defer app.close()

	if cfg.WatchSuites {
		if err := app.startWatcher(ctx); err != nil {
			logger.Warn("Catalog watcher disabled", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}
	logger.Info("Server exited")
	return nil
}

func newValidateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load every suite and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.SuitesDir, cfg.AdConfigPath)
			if err != nil {
				return err
			}

			snap := cat.Snapshot()
			out := cmd.OutOrStdout()
			for _, s := range snap.Summaries() {
				marker := " "
				if s.ID == snap.Default.ID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-24s %-16s v%-8s %3d questions %2d dimensions\n",
					marker, s.ID, s.Name, s.Version, s.TotalQuestions, s.DimensionCount)
			}
			fmt.Fprintf(out, "%d suites OK\n", len(snap.Suites))
			return nil
		},
	}
}

func newScoreCommand(configPath *string) *cobra.Command {
	var suiteID, answersPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file offline and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.SuitesDir, cfg.AdConfigPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(answersPath)
			if err != nil {
				return fmt.Errorf("read answers: %w", err)
			}

			suite, err := cat.Suite(suiteID)
			if err != nil {
				return err
			}
			answers, err := analysis.ParseAnswers(answersPayload(raw))
			if err != nil {
				return err
			}
			record, err := analysis.NewAnalyzer().Score(suite, answers)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(record)
		},
	}
	cmd.Flags().StringVar(&suiteID, "suite", "", "Suite id (default suite when empty)")
	cmd.Flags().StringVar(&answersPath, "answers", "", "JSON file with an answers array or {\"answers\": [...]}")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// answersPayload accepts either a bare array or a submit body.
func answersPayload(raw []byte) json.RawMessage {
	var body struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Answers != nil {
		return body.Answers
	}
	return raw
}

func newMCPCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the quiz tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			cat, err := catalog.New(cfg.SuitesDir, cfg.AdConfigPath)
			if err != nil {
				return err
			}
			svc := quiz.NewService(cat, store.New(cfg.Results.MaxEntries, cfg.Results.TTL.Std()),
				quiz.WithLogger(logger))

			mcptools.Version = version
			return server.ServeStdio(mcptools.NewServer(svc))
		},
	}
}
