package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand() *cobra.Command {
	var (
		name    string
		output  string
		version string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload built artifacts to the dataset registry",
		Long: "Uploads the Parquet table and vocabulary of an already-built\n" +
			"dataset to the configured S3-compatible registry under a version\n" +
			"label.  Fails when the artifacts have not been built yet.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if name != "" {
				cfg.Dataset.Name = name
			}
			if output != "" {
				cfg.Dataset.OutputDir = output
			}

			deps, err := newServiceDeps(cmd.Context(), cliCtx)
			if err != nil {
				return err
			}
			defer deps.close()

			published, err := deps.service.Publish(cmd.Context(), version)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s version %s\n", cfg.Dataset.Name, published)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "dataset name")
	f.StringVarP(&output, "output", "o", "", "output directory holding the artifacts")
	f.StringVar(&version, "dataset-version", "", "version label (generated when empty)")
	return cmd
}
