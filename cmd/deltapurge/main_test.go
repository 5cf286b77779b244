package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dev-tams/deltapurge/internal/config"
	"github.com/dev-tams/deltapurge/internal/delta"
)

func writeTable(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := time.Now().Add(-30 * 24 * time.Hour)

	files := map[string]string{
		"_delta_log/00000000000000000000.json": `{"metaData":{"id":"t","partitionColumns":[],"configuration":{}}}` + "\n" +
			`{"add":{"path":"live.parquet","size":1,"modificationTime":0,"dataChange":true}}` + "\n",
		"live.parquet":   "x",
		"orphan.parquet": "x",
	}
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		require.NoError(t, os.Chtimes(p, old, old))
	}
	return "file://" + filepath.ToSlash(dir) + "/"
}

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := runApp(context.Background(), &stdout, &stderr, append([]string{"deltapurge"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestDryRunPrintsCandidates(t *testing.T) {
	uri := writeTable(t)

	stdout, _, err := run("--dry-run", uri)
	require.NoError(t, err)
	assert.Equal(t, "orphan.parquet\n", stdout)
}

func TestOptionsMayFollowTableURI(t *testing.T) {
	uri := writeTable(t)

	stdout, _, err := run(uri, "--dry-run", "-r", "168")
	require.NoError(t, err)
	assert.Equal(t, "orphan.parquet\n", stdout)

	_, _, err = run(uri, "-c", "0")
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "chunk_size", cfgErr.Field)
}

func TestHoistFlags(t *testing.T) {
	flags := purgeFlags()
	cases := []struct {
		in, want []string
	}{
		{[]string{"deltapurge"}, []string{"deltapurge"}},
		{
			[]string{"deltapurge", "s3://b/t/", "--dry-run", "-c", "10"},
			[]string{"deltapurge", "--dry-run", "-c", "10", "--", "s3://b/t/"},
		},
		{
			[]string{"deltapurge", "-p", "4", "s3://b/t/", "--chunk-timeout=5s"},
			[]string{"deltapurge", "-p", "4", "--chunk-timeout=5s", "--", "s3://b/t/"},
		},
		{
			[]string{"deltapurge", "-c", "-1", "s3://b/t/"},
			[]string{"deltapurge", "-c", "-1", "--", "s3://b/t/"},
		},
		{
			[]string{"deltapurge", "--verbose", "--", "-weird/"},
			[]string{"deltapurge", "--verbose", "--", "-weird/"},
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, hoistFlags(flags, tc.in), "%v", tc.in)
	}
}

func TestLiveRunIsSilentOnStdout(t *testing.T) {
	uri := writeTable(t)

	stdout, stderr, err := run("-c", "10", "-p", "2", uri)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)

	stdout, _, err = run("-d", uri)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestVerboseLogsToStderr(t *testing.T) {
	uri := writeTable(t)

	_, stderr, err := run("--verbose", "-d", uri)
	require.NoError(t, err)
	assert.Contains(t, stderr, "candidates listed")
}

func TestConfigurationErrorsExitWithTwo(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"s3://bucket/table"},
		{"-c", "0", "s3://bucket/table/"},
		{"-p", "0", "s3://bucket/table/"},
		{"--log-level", "trace", "s3://bucket/table/"},
		{"s3://bucket/a/", "s3://bucket/b/"},
	} {
		_, _, err := run(args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, exitConfig, exitCode(err), "%v: %v", args, err)
	}
}

func TestTableAccessErrorExitsWithOne(t *testing.T) {
	uri := "file://" + filepath.ToSlash(t.TempDir()) + "/"

	_, _, err := run("-d", uri)
	var tae *delta.TableAccessError
	require.ErrorAs(t, err, &tae)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestRetentionViolationExitsWithOne(t *testing.T) {
	uri := writeTable(t)

	_, _, err := run("-r", "1", uri)
	var rv *delta.RetentionViolation
	require.ErrorAs(t, err, &rv)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitConfig, exitCode(fmt.Errorf("wrap: %w", &config.ConfigurationError{Field: "x"})))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("DELTAPURGE_PARALLELISM", "3")
	t.Setenv("DELTAPURGE_CHUNK_SIZE", "100")

	var got *config.Config
	a := &cli.App{
		Flags: purgeFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			applyFlags(c, cfg)
			got = cfg
			return nil
		},
	}
	require.NoError(t, a.Run([]string{"deltapurge", "-p", "5", "--chunk-timeout", "2s", "--verbose", "s3://b/t/"}))

	assert.Equal(t, 5, got.Parallelism)
	assert.Equal(t, 100, got.ChunkSize)
	assert.Equal(t, 2*time.Second, got.ChunkTimeout)
	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, "s3://b/t/", got.Table)
	assert.Equal(t, int64(config.DefaultRetentionPeriodHours), got.RetentionPeriodHours)
}
