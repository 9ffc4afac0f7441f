// Package main provides the cardforge CLI: it runs the AI pipeline directly
// from a terminal without the HTTP server or the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phrazzld/cardforge/internal/config"
	"github.com/phrazzld/cardforge/internal/platform/logger"
	"github.com/phrazzld/cardforge/internal/platform/registry"
)

var version = "0.1.0"

// cli holds the state shared by the subcommands. The loaders are swapped in
// tests.
type cli struct {
	loadConfig func() (*config.Config, error)
	newStack   func(ctx context.Context, cfg *config.Config, l *slog.Logger) (*registry.Stack, error)

	cfg      *config.Config
	logger   *slog.Logger
	logLevel string
	jsonOut  bool
}

func newCLI() *cli {
	return &cli{
		loadConfig: config.LoadAI,
		newStack: func(ctx context.Context, cfg *config.Config, l *slog.Logger) (*registry.Stack, error) {
			return registry.NewStack(ctx, cfg, l)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newCLI()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cardforge",
		Short:         "Generate flashcards and summaries with AI models",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Output as JSON")

	rootCmd.AddCommand(
		modelsCmd(c),
		generateCmd(c),
		summarizeCmd(c),
		tokenCmd(c),
	)
	return rootCmd
}

// setup loads the configuration and creates a logger writing to w, so that
// stdout carries only command output.
func (c *cli) setup(w io.Writer) error {
	l, err := logger.SetupWithWriter(logger.Config{Level: c.logLevel}, w)
	if err != nil {
		return err
	}
	c.logger = l

	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *cli) stack(ctx context.Context) (*registry.Stack, error) {
	s, err := c.newStack(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI stack: %w", err)
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
