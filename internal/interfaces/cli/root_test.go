package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommandStructure(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "molpipe", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Version)
}

func TestNewRootCommandSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"build", "vocab", "publish", "train"} {
		assert.True(t, names[want], "subcommand %q not registered", want)
	}
}

func TestNewRootCommandGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))
}

func TestGetCLIContextUninitialised(t *testing.T) {
	cmd := &cobra.Command{Use: "orphan"}
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestRootCommandUnknownSubcommand(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"nope"})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	assert.Error(t, cmd.Execute())
}

// writeStructureFile renders one minimal valid ethanol record in the
// fixed-layout format the parser expects.
func writeStructureFile(t *testing.T, dir, name string) {
	t.Helper()
	body := "3\n" +
		"gdb 1\t157.7\t157.7\t157.7\t0.0\t13.2\t-0.38\t0.11\t0.5\t35.3\t0.04\t-40.4\t-40.4\t-40.4\t-40.5\t6.4\n" +
		"C\t-0.01\t1.08\t0.00\t-0.25\n" +
		"C\t0.00\t-0.01\t0.00\t0.10\n" +
		"O\t1.01\t-0.54\t0.00\t-0.40\n" +
		"1341.3\t2950.1\t3012.6\n" +
		"CCO\tCCO\n" +
		"InChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3\tInChI=1S/C2H6O/c1-2-3/h3H,2H2,1H3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".xyz"), []byte(body), 0o644))
}

func TestBuildCommandEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	for _, name := range []string{"mol_000", "mol_001", "mol_002"} {
		writeStructureFile(t, inputDir, name)
	}

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"build",
		"--dir", inputDir,
		"--output", outputDir,
		"--name", "testset",
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "3 rows")
	assert.FileExists(t, filepath.Join(outputDir, "testset.parquet"))
	assert.FileExists(t, filepath.Join(outputDir, "testset_vocab.json"))
}

func TestBuildCommandConfiguredFromEnv(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeStructureFile(t, inputDir, "mol_000")

	t.Setenv("MOLPIPE_INPUT_DIR", inputDir)
	t.Setenv("MOLPIPE_DATASET_OUTPUT_DIR", outputDir)
	t.Setenv("MOLPIPE_DATASET_NAME", "envset")
	t.Setenv("MOLPIPE_LOG_LEVEL", "error")

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"build"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "1 rows")
	assert.FileExists(t, filepath.Join(outputDir, "envset.parquet"))
}

func TestBuildCommandMissingInputDir(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"build", "--log-level", "error"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.dir")
}

func TestVocabCommandEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeStructureFile(t, inputDir, "mol_000")

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"vocab",
		"--dir", inputDir,
		"--output", outputDir,
		"--name", "testset",
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	// Ethanol canonicalises to CCO: two tokens.
	assert.Contains(t, buf.String(), "2 tokens")
	assert.FileExists(t, filepath.Join(outputDir, "testset_vocab.json"))
}

func TestPublishCommandWithoutRegistry(t *testing.T) {
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"publish", "--name", "testset", "--log-level", "error"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry")
}
