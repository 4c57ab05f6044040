package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	testCases := []struct {
		env      string
		minLevel slog.Level
	}{
		{env: envLocal, minLevel: slog.LevelDebug},
		{env: envDev, minLevel: slog.LevelInfo},
		{env: envProd, minLevel: slog.LevelWarn},
		{env: "staging", minLevel: slog.LevelError},
	}

	for _, tc := range testCases {
		t.Run(tc.env, func(t *testing.T) {
			logger := setupLogger(tc.env)

			require.NotNil(t, logger)
			assert.True(t, logger.Enabled(context.Background(), tc.minLevel))
			assert.False(t, logger.Enabled(context.Background(), tc.minLevel-1))
		})
	}
}

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	require.NoError(t, cmd.ParseFlags([]string{"--workers=4", "--limit=10", "--dry-run", "--provider=nominatim"}))

	flags := cmd.Flags()
	workers, err := flags.GetInt("workers")
	require.NoError(t, err)
	assert.Equal(t, 4, workers)

	limit, err := flags.GetInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	dryRun, err := flags.GetBool("dry-run")
	require.NoError(t, err)
	assert.True(t, dryRun)

	reprocess, err := flags.GetBool("reprocess")
	require.NoError(t, err)
	assert.False(t, reprocess)

	provider, err := flags.GetString("provider")
	require.NoError(t, err)
	assert.Equal(t, "nominatim", provider)

	assert.NotNil(t, flags.Lookup("config"))
}

func TestNewRootCmd_InvalidConfig(t *testing.T) {
	testChdir(t, t.TempDir())
	t.Setenv("NORMALIZER_POSTGRES_HOST", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--workers=2"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres host is required")
}
