// BYZRA ⸻ internal/analyse/analyse.go
// dry run: what convert would do to a file, without touching it

package analyse

import (
	"fmt"
	"os"
	"os/exec"

	"morphra/internal/convert"
	"morphra/internal/formats"
	"morphra/internal/util"
)

type Options struct {
	Target formats.Target
	Tools  convert.Tools
}

// examines a file and plans its conversion
func Analyze(path string, opts Options) (*AnalysisReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("invalid file: %s is a directory", path)
	}

	fileType, err := DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("file type detection failed: %w", err)
	}

	report := &AnalysisReport{
		Path:     path,
		Size:     info.Size(),
		FileType: fileType,
		Target:   opts.Target,
		Action:   convert.Decide(fileType.Format, fileType.Extension, opts.Target),
	}

	switch report.Action {
	case convert.ActionRename:
		report.Destination = util.WithExt(path, opts.Target.Ext)
		report.Backup = occupied(report.Destination, path, convert.BackupExisting)
	case convert.ActionTranscode, convert.ActionDelegate:
		report.Destination = util.WithExt(path, opts.Target.Ext)
		report.Backup = occupied(report.Destination, path, convert.BackupOld)
	}

	report.Tools, report.MissingTools = requiredTools(report.Action, fileType.Format, opts)

	return report, nil
}

// backup kind a destination would need, "" when free or the source itself
func occupied(destination, path string, kind convert.BackupKind) convert.BackupKind {
	if destination == path || !util.Exists(destination) {
		return ""
	}
	return kind
}

// external binaries the action needs, and which of them are not installed
func requiredTools(action convert.Action, detected formats.FormatTag, opts Options) (needed, missing []string) {
	switch action {
	case convert.ActionDelegate:
		switch detected {
		case formats.WebP:
			needed = append(needed, opts.Tools.DWebP)
		case formats.AVIF:
			needed = append(needed, opts.Tools.AVIFDec)
		}
		fallthrough
	case convert.ActionTranscode:
		switch opts.Target.Format {
		case formats.WebP:
			needed = append(needed, opts.Tools.CWebP)
		case formats.AVIF:
			needed = append(needed, opts.Tools.AVIFEnc)
		}
	}

	for _, tool := range needed {
		if tool == "" {
			missing = append(missing, "(unset)")
			continue
		}
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return needed, missing
}

// analyzes multiple files and returns their reports
func AnalyzeFiles(paths []string, opts Options) []*AnalysisReport {
	results := make([]*AnalysisReport, 0, len(paths))

	for _, path := range paths {
		report, err := Analyze(path, opts)
		if err != nil {
			// error report
			results = append(results, &AnalysisReport{
				Path:     path,
				FileType: FileType{Format: formats.Unknown, Extension: util.ExtOf(path)},
				Target:   opts.Target,
				Err:      err,
			})
			continue
		}
		results = append(results, report)
	}

	return results
}

// analyzes everything a convert run over root would touch
func AnalyzeTree(root string, isDir, recurse bool, opts Options) ([]*AnalysisReport, error) {
	paths, err := convert.Enumerate(root, isDir, recurse, nil)
	if err != nil {
		return nil, err
	}
	return AnalyzeFiles(paths, opts), nil
}
