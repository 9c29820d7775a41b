package convert

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"morphra/internal/formats"
)

// records calls, answers from a fixed outcome per base name
type recordingConverter struct {
	mu       sync.Mutex
	calls    []string
	outcomes map[string]Outcome
	onCall   func(path string)
}

func (r *recordingConverter) Convert(_ context.Context, path, _ string) Outcome {
	r.mu.Lock()
	r.calls = append(r.calls, filepath.Base(path))
	r.mu.Unlock()

	if r.onCall != nil {
		r.onCall(path)
	}
	if o, ok := r.outcomes[filepath.Base(path)]; ok {
		return o
	}
	return Converted
}

// root/{top.png, one/{a.png, b.txt}, two/{c.png, deeper/d.png}}
func walkTree(t *testing.T) string {
	root := t.TempDir()
	writeBytes(t, filepath.Join(root, "top.png"), []byte("x"))
	writeBytes(t, filepath.Join(root, "one", "a.png"), []byte("x"))
	writeBytes(t, filepath.Join(root, "one", "b.txt"), []byte("x"))
	writeBytes(t, filepath.Join(root, "two", "c.png"), []byte("x"))
	writeBytes(t, filepath.Join(root, "two", "deeper", "d.png"), []byte("x"))
	return root
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func TestEnumerate(t *testing.T) {
	root := walkTree(t)

	files, err := Enumerate(root, true, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.png"}, baseNames(files))

	// one level down only, deeper/ is never entered
	files, err = Enumerate(root, true, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.png", "a.png", "b.txt", "c.png"}, baseNames(files))

	single := filepath.Join(root, "top.png")
	files, err = Enumerate(single, false, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)

	files, err = Enumerate(filepath.Join(root, "missing.png"), false, false, nil)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = Enumerate(filepath.Join(root, "missing"), true, false, nil)
	assert.Error(t, err)
}

func TestWalk_SummaryAndProgress(t *testing.T) {
	root := walkTree(t)
	conv := &recordingConverter{outcomes: map[string]Outcome{
		"b.txt": SkippedNonImage,
		"c.png": Failed,
	}}

	var ticks [][2]int
	walker := NewWalker(conv, zaptest.NewLogger(t), WithProgress(func(completed, total int, _ string) {
		ticks = append(ticks, [2]int{completed, total})
	}))

	summary, err := walker.Walk(context.Background(), root, true, true, "jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{"top.png", "a.png", "b.txt", "c.png"}, conv.calls)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Counts[Converted])
	assert.Equal(t, 1, summary.Counts[SkippedNonImage])
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, ticks)
}

func TestWalk_Cancelled(t *testing.T) {
	root := walkTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	conv := &recordingConverter{onCall: func(string) { cancel() }}

	summary, err := NewWalker(conv, nil).Walk(ctx, root, true, true, "png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"top.png"}, conv.calls)
	assert.Equal(t, 1, summary.Total)
}

func TestWalk_Pace(t *testing.T) {
	root := walkTree(t)
	conv := &recordingConverter{}

	start := time.Now()
	_, err := NewWalker(conv, nil, WithPace(20*time.Millisecond)).Walk(context.Background(), root, true, true, "png")
	require.NoError(t, err)

	// four files, three pauses
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Len(t, conv.calls, 4)
}

func TestWalk_FileMovedByEarlierConversion(t *testing.T) {
	root := walkTree(t)
	conv := &recordingConverter{onCall: func(path string) {
		if filepath.Base(path) == "a.png" {
			os.Remove(filepath.Join(root, "one", "b.txt"))
		}
	}}

	summary, err := NewWalker(conv, nil).Walk(context.Background(), root, true, true, "png")
	require.NoError(t, err)
	assert.Equal(t, []string{"top.png", "a.png", "c.png"}, conv.calls)
	assert.Equal(t, 3, summary.Total)
}

func TestWalk_RealConversions(t *testing.T) {
	root := t.TempDir()
	writeBytes(t, filepath.Join(root, "a.png"), imageBytes(t, formats.PNG))
	writeBytes(t, filepath.Join(root, "b.jpg"), imageBytes(t, formats.JPEG))
	writeBytes(t, filepath.Join(root, "c.gif"), imageBytes(t, formats.PNG))
	writeBytes(t, filepath.Join(root, "d.txt"), []byte("hello"))

	walker := NewWalker(newTestConverter(t, DefaultTools()), zaptest.NewLogger(t))
	summary, err := walker.Walk(context.Background(), root, true, false, "jpg")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Counts[Converted])
	assert.Equal(t, 1, summary.Counts[SkippedAlreadyCorrect])
	assert.Equal(t, 1, summary.Counts[SkippedNonImage])
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.txt"}, dirNames(t, root))
}
