package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/scoresheet/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestBuildWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := Build(&config.LogConfig{
		Level:  "debug",
		Format: "json",
		Output: "file",
		File: config.LogFileConfig{
			Path:     dir,
			Filename: "test.log",
			MaxSize:  1,
		},
	})
	require.NoError(t, err)

	l.Info("game imported")
	l.Error("save failed")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "game imported")

	errData, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errData), "save failed")
	assert.NotContains(t, string(errData), "game imported")
}

func TestSetLevel(t *testing.T) {
	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, Level())
	SetLevel("info")
	assert.Equal(t, zapcore.InfoLevel, Level())
}

func TestGetLoggerWithoutInit(t *testing.T) {
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, GetSugar())
	assert.NotNil(t, GetModuleLogger("editor"))
}
