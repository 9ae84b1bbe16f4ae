package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRotatingWriter_KeepsOneBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	w, err := Open(path, 16)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte(strings.Repeat("a", 20)))
	require.NoError(t, err)
	_, err = w.Write([]byte("b"))
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Len(t, backup, 20)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "b", string(current))
}

func TestSetup_WritesToFileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	var console bytes.Buffer

	logger, w, err := Setup(Options{Path: path, Level: "debug", Console: &console})
	require.NoError(t, err)
	defer w.Close()
	defer slog.SetDefault(Discard())

	logger.Debug("fetching page", "page", 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "fetching page")
	require.Contains(t, console.String(), "fetching page")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}
