package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVocabCommand() *cobra.Command {
	var (
		dir     string
		pattern string
		name    string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Build only the SMILES token vocabulary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config
			if dir != "" {
				cfg.Input.Dir = dir
			}
			if pattern != "" {
				cfg.Input.Pattern = pattern
			}
			if name != "" {
				cfg.Dataset.Name = name
			}
			if output != "" {
				cfg.Dataset.OutputDir = output
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			deps, err := newServiceDeps(cmd.Context(), cliCtx)
			if err != nil {
				return err
			}
			defer deps.close()

			path, size, err := deps.service.BuildVocabulary(cmd.Context(), cfg.Input.Dir, cfg.Input.Pattern)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vocabulary: %s (%d tokens)\n", path, size)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", "", "input directory of structure files")
	f.StringVar(&pattern, "pattern", "", "glob matched against file names")
	f.StringVar(&name, "name", "", "dataset name")
	f.StringVarP(&output, "output", "o", "", "output directory")
	return cmd
}
