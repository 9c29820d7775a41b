// BYZRA ⸻ internal/analyse/report.go
// format analysis reports

package analyse

import (
	"fmt"
	"path/filepath"
	"strings"

	"morphra/internal/convert"
	"morphra/internal/formats"
	"morphra/internal/util"
)

// result of a dry-run analysis
type AnalysisReport struct {
	Path         string
	Size         int64
	FileType     FileType
	Target       formats.Target
	Action       convert.Action
	Destination  string
	Backup       convert.BackupKind // occupant of Destination would be moved aside
	Tools        []string
	MissingTools []string
	Err          error
}

// the action cannot succeed as things stand
func (r *AnalysisReport) Blocked() bool {
	return r.Err != nil || len(r.MissingTools) > 0
}

func GenerateReport(report *AnalysisReport) string {
	var sb strings.Builder

	// info header
	sb.WriteString(util.NSH.Render(fmt.Sprintf("File: %s", report.Path)) + "\n")

	if report.Err != nil {
		sb.WriteString(fmt.Sprintf(" %s %s\n", util.ErrorSymbol(), util.ERR.Render(report.Err.Error())))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf(" %s %s: %s\n", util.ORN.Render("•"), util.NSH.Render("Content"), describeType(report.FileType)))
	sb.WriteString(fmt.Sprintf(" %s %s: %s\n", util.ORN.Render("•"), util.NSH.Render("Size"), formatSize(report.Size)))

	switch report.Action {
	case convert.ActionSkipNonImage:
		sb.WriteString(util.SUB.Render(" ✓ Not an image, would be left alone") + "\n")
		return sb.String()
	case convert.ActionSkipCorrect:
		sb.WriteString(util.LBL.Render(" ✓ Already "+report.Target.Ext+", nothing to do") + "\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf(" %s %s: %s → %s\n",
		util.ORN.Render("•"),
		util.NSH.Render(strings.ToUpper(report.Action.String()[:1])+report.Action.String()[1:]),
		filepath.Base(report.Path),
		filepath.Base(report.Destination)))

	if report.Backup != "" {
		sb.WriteString(fmt.Sprintf(" %s %s\n",
			util.ORN.Render("!"),
			util.WRN.Render(fmt.Sprintf("%s exists, would be kept as *_%s_<timestamp>", filepath.Base(report.Destination), report.Backup))))
	}

	if len(report.MissingTools) > 0 {
		sb.WriteString(fmt.Sprintf(" %s %s\n",
			util.ErrorSymbol(),
			util.ERR.Render("Missing external tool: "+strings.Join(report.MissingTools, ", "))))
	} else if len(report.Tools) > 0 {
		sb.WriteString(fmt.Sprintf(" %s %s: %s\n", util.ORN.Render("•"), util.NSH.Render("Uses"), strings.Join(report.Tools, ", ")))
	}

	return sb.String()
}

// creates a machine-readable report
func GenerateSimplifiedReport(report *AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("file: %s\n", report.Path))
	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("error: %s\n", report.Err))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("format: %s\n", report.FileType.Format))
	sb.WriteString(fmt.Sprintf("mimetype: %s\n", report.FileType.MimeType))
	if report.FileType.Width > 0 {
		sb.WriteString(fmt.Sprintf("dimensions: %dx%d\n", report.FileType.Width, report.FileType.Height))
	}
	sb.WriteString(fmt.Sprintf("action: %s\n", report.Action))
	if report.Destination != "" {
		sb.WriteString(fmt.Sprintf("destination: %s\n", report.Destination))
	}
	if report.Backup != "" {
		sb.WriteString(fmt.Sprintf("backup: %s\n", report.Backup))
	}
	for _, tool := range report.MissingTools {
		sb.WriteString(fmt.Sprintf("missing_tool: %s\n", tool))
	}

	return sb.String()
}

// one line per action across a batch
func GenerateSummary(reports []*AnalysisReport) string {
	counts := make(map[convert.Action]int)
	failed, blocked := 0, 0
	for _, r := range reports {
		switch {
		case r.Err != nil:
			failed++
		case r.Blocked():
			blocked++
		default:
			counts[r.Action]++
		}
	}

	var sb strings.Builder
	sb.WriteString(util.Divider + "\n")
	sb.WriteString(util.LBL.Render(fmt.Sprintf("%d files", len(reports))) + "\n")

	order := []convert.Action{
		convert.ActionTranscode,
		convert.ActionDelegate,
		convert.ActionRename,
		convert.ActionSkipCorrect,
		convert.ActionSkipNonImage,
	}
	for _, action := range order {
		if counts[action] > 0 {
			sb.WriteString(fmt.Sprintf(" %s %s: %d\n", util.Ornament, action, counts[action]))
		}
	}
	if blocked > 0 {
		sb.WriteString(fmt.Sprintf(" %s %s\n", util.WarningSymbol(), util.WRN.Render(fmt.Sprintf("%d blocked by missing tools", blocked))))
	}
	if failed > 0 {
		sb.WriteString(fmt.Sprintf(" %s %s\n", util.ErrorSymbol(), util.ERR.Render(fmt.Sprintf("%d could not be read", failed))))
	}

	return sb.String()
}

func describeType(ft FileType) string {
	if ft.Format == formats.Unknown {
		return "unrecognised"
	}

	desc := fmt.Sprintf("%s (%s)", ft.Format, ft.MimeType)
	if ft.Width > 0 && ft.Height > 0 {
		desc += fmt.Sprintf(", %dx%d", ft.Width, ft.Height)
	}
	if ft.Extension != "" && ft.Extension != string(ft.Format) {
		desc += ", named ." + ft.Extension
	}
	return desc
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
