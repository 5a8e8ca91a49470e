package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chemforge/molpipe/internal/application/training"
)

func newTrainCommand() *cobra.Command {
	run := training.RunConfig{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Launch a training run on the built dataset",
		Long: "Starts the configured training binary as a subprocess, passing\n" +
			"model and sampling settings as key=value overrides, and streams\n" +
			"its output into the pipeline log.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if run.Dataset == "" {
				run.Dataset = cliCtx.Config.Dataset.Name
			}

			launcher := training.NewLauncher(cliCtx.Config.Training, cliCtx.Logger)
			result, err := launcher.Run(cmd.Context(), run)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "run %s exited with code %d after %s\n",
					result.RunID, result.ExitCode, result.Elapsed.Round(time.Millisecond))
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&run.Dataset, "dataset", "", "dataset name passed to the trainer (defaults to the configured name)")
	f.IntVar(&run.BatchSize, "batch-size", 0, "loader batch size")
	f.IntVar(&run.HiddenSize, "hidden-size", 0, "model hidden size")
	f.IntVar(&run.NumBlocks, "blocks", 0, "number of model blocks")
	f.IntVar(&run.NumHeads, "heads", 0, "number of attention heads")
	f.IntVar(&run.CondDim, "cond-dim", 0, "conditioning dimension")
	f.StringVar(&run.Parameterization, "parameterization", "", "model parameterization")
	f.StringVar(&run.Backbone, "backbone", "", "model backbone")
	f.IntVar(&run.SeqLength, "seq-length", 0, "token sequence length")
	f.IntVar(&run.SamplingSteps, "sampling-steps", 0, "number of sampling steps")
	f.BoolVar(&run.TimeConditioning, "time-conditioning", false, "enable time conditioning")
	return cmd
}
