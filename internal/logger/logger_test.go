package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	_, closeFn, err := Init(Config{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	l := Component("test")
	l.Info().Str("key", "value").Msg("写入文件")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "写入文件")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	_, _, err := Init(Config{Level: "verbose"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInitBadFile(t *testing.T) {
	_, _, err := Init(Config{File: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}
