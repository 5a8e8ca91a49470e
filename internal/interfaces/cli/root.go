// Package cli wires the molpipe command tree: build, vocab, publish, train.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/internal/infrastructure/monitoring/metrics"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// CLIContext carries initialised dependencies through the command tree.
type CLIContext struct {
	Config     *config.Config
	ConfigPath string
	Logger     logging.Logger
	LogLevel   logging.Level
	Metrics    *metrics.PipelineMetrics
}

// NewRootCommand creates the root command with all global flags and
// subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "molpipe",
		Short:   "molpipe builds molecular datasets from QM9-style structure files",
		Long: "molpipe scans a directory of fixed-layout molecular structure files,\n" +
			"computes cheminformatics descriptors, and exports the aggregate as a\n" +
			"columnar dataset with a SMILES token vocabulary, ready for training.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (defaults to MOLPIPE_* environment variables)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&opts.LogFormat, "log-format", "", "log format override (json, console)")

	cmd.AddCommand(
		newBuildCommand(),
		newVocabCommand(),
		newPublishCommand(),
		newTrainCommand(),
	)
	return cmd
}

// persistentPreRun loads configuration and builds the shared dependencies.
// Validation is deferred to the subcommands: flag overrides land after this
// hook, and not every command needs a complete pipeline config.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}

	logger, level, err := logging.NewLoggerWithLevel(cfg.Log)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:     cfg,
		ConfigPath: opts.ConfigPath,
		Logger:     logger,
		LogLevel:   level,
		Metrics:    metrics.New(cfg.Metrics.Namespace),
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// GetCLIContext extracts the CLIContext installed by persistentPreRun.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cliCtx, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("cli context not initialised")
	}
	return cliCtx, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
