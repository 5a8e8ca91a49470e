package training

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

func TestRunConfigOverrides(t *testing.T) {
	run := RunConfig{
		Dataset:          "qm9",
		BatchSize:        64,
		HiddenSize:       768,
		NumBlocks:        12,
		NumHeads:         12,
		Parameterization: "subs",
		Backbone:         "dit",
		SeqLength:        128,
		SamplingSteps:    1000,
		TimeConditioning: true,
	}
	assert.Equal(t, []string{
		"data=qm9",
		"loader.batch_size=64",
		"model.hidden_size=768",
		"model.n_blocks=12",
		"model.n_heads=12",
		"parameterization=subs",
		"backbone=dit",
		"model.length=128",
		"sampling.steps=1000",
		"time_conditioning=true",
	}, run.Overrides())
}

func TestRunConfigOverridesOmitsZeroValues(t *testing.T) {
	assert.Empty(t, RunConfig{}.Overrides())
	assert.Equal(t, []string{"data=qm9"}, RunConfig{Dataset: "qm9"}.Overrides())
}

func TestLauncherRun(t *testing.T) {
	l := NewLauncher(config.TrainingConfig{Binary: "true"}, logging.NewNopLogger())

	result, err := l.Run(context.Background(), RunConfig{Dataset: "qm9"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.NotEmpty(t, result.RunID)
}

func TestLauncherRunFailure(t *testing.T) {
	l := NewLauncher(config.TrainingConfig{Binary: "false"}, logging.NewNopLogger())

	result, err := l.Run(context.Background(), RunConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTrainerExit))
	require.NotNil(t, result)
	assert.NotEqual(t, 0, result.ExitCode)
}

func TestLauncherMissingBinary(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		l := NewLauncher(config.TrainingConfig{}, logging.NewNopLogger())
		_, err := l.Run(context.Background(), RunConfig{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTrainerNotFound))
	})
	t.Run("not on PATH", func(t *testing.T) {
		l := NewLauncher(config.TrainingConfig{Binary: "definitely-not-a-trainer"}, logging.NewNopLogger())
		_, err := l.Run(context.Background(), RunConfig{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeTrainerNotFound))
	})
}
