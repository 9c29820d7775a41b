// BYZRA ⸻ internal/util/fileops.go
// file operation utilities

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// path exists, whatever it is
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// splits a path into directory, basename without extension and extension without dot
func SplitName(path string) (dir, base, ext string) {
	dir = filepath.Dir(path)
	name := filepath.Base(path)
	dotExt := filepath.Ext(name)
	return dir, strings.TrimSuffix(name, dotExt), strings.TrimPrefix(dotExt, ".")
}

// same directory and basename, new extension
func WithExt(path, ext string) string {
	dir, base, _ := SplitName(path)
	return filepath.Join(dir, base+"."+ext)
}

// lowercased extension without the dot
func ExtOf(path string) string {
	_, _, ext := SplitName(path)
	return strings.ToLower(ext)
}

// neutral name in dir, for intermediates external tools write to
func TempPath(dir, ext string) string {
	name := GenerateRandomID()
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(dir, name)
}

// is this one of our intermediates
func IsTempName(path string) bool {
	return strings.HasPrefix(filepath.Base(path), TempPrefix)
}

// immediate regular files of dir, in listing order
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// immediate subdirectories of dir, in listing order
func ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	return dirs, nil
}

// removes a file, a missing file is fine
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// file exists and has content
func NonEmptyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("output is a directory: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output is empty: %s", path)
	}
	return nil
}
