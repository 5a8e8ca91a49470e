package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
)

// buildOptions holds flags for the build command.
type buildOptions struct {
	Dir     string
	Pattern string
	Name    string
	Output  string
	Publish bool
	Version string
}

func newBuildCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan structure files and build the dataset",
		Long: "Parses every matching structure file under the input directory,\n" +
			"computes descriptors, and writes the Parquet table and token\n" +
			"vocabulary.  Malformed files are skipped and logged, never fatal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Dir, "dir", "d", "", "input directory of structure files")
	f.StringVar(&opts.Pattern, "pattern", "", "glob matched against file names")
	f.StringVar(&opts.Name, "name", "", "dataset name")
	f.StringVarP(&opts.Output, "output", "o", "", "output directory")
	f.BoolVar(&opts.Publish, "publish", false, "publish artifacts to the registry after the build")
	f.StringVar(&opts.Version, "dataset-version", "", "registry version label (generated when empty)")
	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	if opts.Dir != "" {
		cfg.Input.Dir = opts.Dir
	}
	if opts.Pattern != "" {
		cfg.Input.Pattern = opts.Pattern
	}
	if opts.Name != "" {
		cfg.Dataset.Name = opts.Name
	}
	if opts.Output != "" {
		cfg.Dataset.OutputDir = opts.Output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Long scans can have their log level flipped by editing the config
	// file; other settings take effect on the next run.
	if cliCtx.ConfigPath != "" {
		config.Watch(cliCtx.ConfigPath, func(updated *config.Config) {
			cliCtx.LogLevel.Set(updated.Log.Level)
			cliCtx.Logger.Info("log level updated",
				logging.String("level", updated.Log.Level))
		})
	}

	ctx := cmd.Context()
	startMetricsServer(ctx, cliCtx)

	deps, err := newServiceDeps(ctx, cliCtx)
	if err != nil {
		return err
	}
	defer deps.close()

	summary, err := deps.service.Build(ctx, cfg.Input.Dir, cfg.Input.Pattern)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dataset %s: %d rows, %d skipped (%s)\n",
		summary.Dataset, summary.Rows, summary.Skipped, summary.Elapsed.Round(time.Millisecond))
	if summary.ParquetPath != "" {
		fmt.Fprintf(out, "table:      %s\n", summary.ParquetPath)
	}
	fmt.Fprintf(out, "vocabulary: %s\n", summary.VocabPath)

	if opts.Publish {
		version, err := deps.service.Publish(ctx, opts.Version)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "published:  %s\n", version)
	}
	return nil
}
