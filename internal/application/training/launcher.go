// Package training launches the external diffusion-training framework as a
// subprocess.  The trainer is an opaque collaborator: this package only
// assembles its configuration overrides, streams its output, and reports
// the exit status.
package training

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

// RunConfig holds the command-line overrides passed to the trainer.  Zero
// values are omitted so the trainer's own defaults apply.
type RunConfig struct {
	Dataset          string
	BatchSize        int
	HiddenSize       int
	NumBlocks        int
	NumHeads         int
	CondDim          int
	Parameterization string
	Backbone         string
	SeqLength        int
	SamplingSteps    int
	TimeConditioning bool
}

// Overrides renders the key=value argument list for the trainer.
func (c RunConfig) Overrides() []string {
	var args []string
	add := func(key, value string) {
		args = append(args, key+"="+value)
	}
	if c.Dataset != "" {
		add("data", c.Dataset)
	}
	if c.BatchSize > 0 {
		add("loader.batch_size", strconv.Itoa(c.BatchSize))
	}
	if c.HiddenSize > 0 {
		add("model.hidden_size", strconv.Itoa(c.HiddenSize))
	}
	if c.NumBlocks > 0 {
		add("model.n_blocks", strconv.Itoa(c.NumBlocks))
	}
	if c.NumHeads > 0 {
		add("model.n_heads", strconv.Itoa(c.NumHeads))
	}
	if c.CondDim > 0 {
		add("model.cond_dim", strconv.Itoa(c.CondDim))
	}
	if c.Parameterization != "" {
		add("parameterization", c.Parameterization)
	}
	if c.Backbone != "" {
		add("backbone", c.Backbone)
	}
	if c.SeqLength > 0 {
		add("model.length", strconv.Itoa(c.SeqLength))
	}
	if c.SamplingSteps > 0 {
		add("sampling.steps", strconv.Itoa(c.SamplingSteps))
	}
	if c.TimeConditioning {
		add("time_conditioning", "true")
	}
	return args
}

// RunResult describes one finished training run.
type RunResult struct {
	RunID    string
	ExitCode int
	Elapsed  time.Duration
}

// Launcher starts training subprocesses.
type Launcher struct {
	cfg    config.TrainingConfig
	logger logging.Logger
}

// NewLauncher builds a launcher for the configured trainer binary.
func NewLauncher(cfg config.TrainingConfig, logger logging.Logger) *Launcher {
	return &Launcher{cfg: cfg, logger: logger.Named("training")}
}

// Run executes one training run and blocks until it exits.  There is no
// retry and no checkpoint handling here: a failed run is restarted from
// scratch by the operator.
func (l *Launcher) Run(ctx context.Context, run RunConfig) (*RunResult, error) {
	if l.cfg.Binary == "" {
		return nil, errors.New(errors.ErrCodeTrainerNotFound, "no training binary configured")
	}
	if _, err := exec.LookPath(l.cfg.Binary); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTrainerNotFound, "training binary not found").
			WithDetail("binary=" + l.cfg.Binary)
	}

	runID := uuid.NewString()
	args := run.Overrides()
	logger := l.logger.With(logging.String("run_id", runID))
	logger.Info("starting training run",
		logging.String("binary", l.cfg.Binary),
		logging.Any("overrides", args))

	cmd := exec.CommandContext(ctx, l.cfg.Binary, args...)
	cmd.Dir = l.cfg.WorkDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "attach stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "attach stderr pipe")
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTrainerExit, "start trainer")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			logger.Info("trainer", logging.String("line", scanner.Text()))
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logger.Warn("trainer", logging.String("line", scanner.Text()))
		}
	}()
	wg.Wait()

	err = cmd.Wait()
	result := &RunResult{
		RunID:    runID,
		ExitCode: cmd.ProcessState.ExitCode(),
		Elapsed:  time.Since(start),
	}
	if err != nil {
		return result, errors.Wrap(err, errors.ErrCodeTrainerExit,
			fmt.Sprintf("trainer exited with code %d", result.ExitCode)).
			WithDetail("run_id=" + runID)
	}

	logger.Info("training run finished", logging.Duration("elapsed", result.Elapsed))
	return result, nil
}
