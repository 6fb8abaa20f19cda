package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesDateBasedLogFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(&Config{LogDir: dir, Level: LevelInfo})
	require.NoError(t, err)

	logger.Info().Str("k", "v").Msg("hello")

	logPath := filepath.Join(dir, fmt.Sprintf("egoavatar_%s.log", time.Now().Format("2006-01-02")))
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"app":"egoavatar"`)
}

func TestNewCreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	_, err := New(&Config{LogDir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewWithoutOutputsIsSilent(t *testing.T) {
	logger, err := New(&Config{Console: false})
	require.NoError(t, err)

	// Nop logger: writing must not panic.
	logger.Info().Msg("dropped")
}

func TestNewNilConfigUsesDefaults(t *testing.T) {
	_, err := New(nil)
	assert.NoError(t, err)
}
