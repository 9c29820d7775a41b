package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "morphra.log")

	logger, sink, err := New(Options{Path: path})
	require.NoError(t, err)
	require.NotNil(t, sink)
	defer sink.Close()

	logger.Info("File: a.png was converted", zap.String("target", "jpg"))
	logger.Info("File: b.txt is no image file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "File: a.png was converted")
	assert.Contains(t, lines[0], "jpg")
	assert.Contains(t, lines[1], "b.txt")
}

func TestNew_VerboseConsole(t *testing.T) {
	var console bytes.Buffer

	logger, sink, err := New(Options{Verbose: true, Console: &console})
	require.NoError(t, err)
	assert.Nil(t, sink)

	logger.Debug("walking")
	assert.Contains(t, console.String(), "walking")
}

func TestNew_NoSinks(t *testing.T) {
	logger, sink, err := New(Options{})
	require.NoError(t, err)
	assert.Nil(t, sink)
	logger.Info("dropped")
}

func TestFileSink_Rotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morphra.log")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	defer sink.Close()

	_, err = sink.Write([]byte("before\n"))
	require.NoError(t, err)

	archived, err := sink.Rotate()
	require.NoError(t, err)

	old, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "before\n", string(old))

	_, err = sink.Write([]byte("after\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Sync())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(current))
}

func TestNew_RotatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "morphra.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 64), 0600))

	_, sink, err := New(Options{Path: path, MaxSize: 16})
	require.NoError(t, err)
	defer sink.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "morphra.log"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = sink.Write([]byte("late"))
	assert.Error(t, err)
	assert.NoError(t, sink.Sync())
	assert.NoError(t, sink.Close())
}
