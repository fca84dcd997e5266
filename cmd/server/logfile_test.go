package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFileWriter_KeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "traq.log")
	w, err := newLogFileWriter(path, 64, 32)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat(string(rune('a'+i)), 10)))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 64)
	require.True(t, strings.HasSuffix(string(data), strings.Repeat("j", 10)))
}

func TestLogFileWriter_BelowLimitUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traq.log")
	w, err := newLogFileWriter(path, 1024, 512)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, "DEBUG", parseLogLevel("debug").String())
	require.Equal(t, "WARN", parseLogLevel("warn").String())
	require.Equal(t, "INFO", parseLogLevel("bogus").String())
}
