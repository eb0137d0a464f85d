package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args []string, envFile string) (*Config, error) {
	t.Helper()
	flags := pflag.NewFlagSet("kazudashi", pflag.ContinueOnError)
	loader := NewLoader(flags)
	require.NoError(t, flags.Parse(args))
	return loader.Load(envFile)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, nil, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.False(t, cfg.IsDebug())
}

func TestLoadFlags(t *testing.T) {
	cfg, err := load(t, []string{
		"--template=forms/template.xlsm",
		"--delivery-template=",
		"--catalog-dir=/srv/masters",
		"--loglevel=DEBUG",
		"--workers=4",
		"--row-tolerance=2.5",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "forms/template.xlsm", cfg.Template)
	assert.Empty(t, cfg.DeliveryTemplate)
	assert.Equal(t, "/srv/masters", cfg.CatalogDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, 4, cfg.Workers)
	assert.InDelta(t, 2.5, cfg.RowTolerance, 1e-9)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("KAZUDASHI_CATALOG_DIR", "/from/env")
	t.Setenv("KAZUDASHI_WORKERS", "8")

	cfg, err := load(t, []string{"--workers=3"}, "")
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.CatalogDir)
	assert.Equal(t, 3, cfg.Workers, "flags take precedence over the environment")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KAZUDASHI_OUTPUT_DIR=/tmp/out\n"), 0o600))
	t.Setenv("KAZUDASHI_OUTPUT_DIR", "")
	require.NoError(t, os.Unsetenv("KAZUDASHI_OUTPUT_DIR"))

	cfg, err := load(t, nil, path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)

	_, err = load(t, nil, filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "log level", args: []string{"--loglevel=verbose"}},
		{name: "workers", args: []string{"--workers=0"}},
		{name: "template", args: []string{"--template="}},
		{name: "tolerance", args: []string{"--boundary-tolerance=0"}},
		{name: "start row", args: []string{"--start-row=0"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(t, tc.args, "")
			assert.Error(t, err)
		})
	}
}
