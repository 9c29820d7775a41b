// BYZRA ⸻ internal/convert/walker.go
// feeds a file, a folder or a folder of folders through a converter

package convert

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"morphra/internal/util"
)

// called after each file, completed counts from 1
type ProgressFunc func(completed, total int, path string)

type Walker struct {
	converter FileConverter
	logger    *zap.Logger
	progress  ProgressFunc
	pace      time.Duration
}

type WalkerOption func(*Walker)

func WithProgress(fn ProgressFunc) WalkerOption {
	return func(w *Walker) { w.progress = fn }
}

// pause between files, for slow disks or shared machines
func WithPace(d time.Duration) WalkerOption {
	return func(w *Walker) { w.pace = d }
}

func NewWalker(converter FileConverter, logger *zap.Logger, opts ...WalkerOption) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Walker{converter: converter, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// files a run covers: the path itself, or the immediate files of a directory
// followed, with recurse, by the immediate files of each immediate subdirectory
func Enumerate(root string, isDir, recurse bool, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if !isDir {
		info, err := os.Stat(root)
		if err != nil || info.IsDir() {
			return nil, nil
		}
		return []string{root}, nil
	}

	files, err := util.ListFiles(root)
	if err != nil || !recurse {
		return files, err
	}

	dirs, err := util.ListDirs(root)
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		inner, err := util.ListFiles(dir)
		if err != nil {
			logger.Warn("Skipping unreadable directory",
				zap.String("dir", filepath.Base(dir)),
				zap.Error(err))
			continue
		}
		files = append(files, inner...)
	}
	return files, nil
}

// runs every enumerated file through the converter, one at a time; per-file
// failures only show up in the summary, cancellation stops between files
func (w *Walker) Walk(ctx context.Context, root string, isDir, recurse bool, target string) (Summary, error) {
	summary := NewSummary()

	files, err := Enumerate(root, isDir, recurse, w.logger)
	if err != nil {
		w.logger.Error("Could not list files", zap.String("path", root), zap.Error(err))
		return summary, err
	}

	total := len(files)
	w.logger.Info("Batch started",
		zap.String("path", root),
		zap.Int("files", total),
		zap.String("target", target))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			w.logger.Warn("Batch cancelled", zap.Int("done", i), zap.Int("files", total))
			return summary, err
		}

		if i > 0 && w.pace > 0 {
			select {
			case <-ctx.Done():
				w.logger.Warn("Batch cancelled", zap.Int("done", i), zap.Int("files", total))
				return summary, ctx.Err()
			case <-time.After(w.pace):
			}
		}

		// an earlier file of this batch may have moved it aside
		if util.Exists(path) {
			summary.Add(w.converter.Convert(ctx, path, target))
		} else {
			w.logger.Info("File disappeared before its turn", zap.String("file", filepath.Base(path)))
		}

		if w.progress != nil {
			w.progress(i+1, total, path)
		}
	}

	w.logger.Info("Batch finished", zap.String("summary", summary.String()))
	return summary, nil
}
