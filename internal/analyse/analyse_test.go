package analyse

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphra/internal/convert"
	"morphra/internal/formats"
)

func writeImage(t *testing.T, path string, format formats.FormatTag) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 7))
	img.Set(3, 3, color.NRGBA{200, 10, 10, 255})

	var buf bytes.Buffer
	require.NoError(t, formats.NewCodec(90, false).Encode(&buf, img, format))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func options(t *testing.T, token string) Options {
	t.Helper()
	target, err := formats.ParseTarget(token)
	require.NoError(t, err)
	return Options{Target: target, Tools: convert.DefaultTools()}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.JPG")
	writeImage(t, path, formats.PNG)

	ft, err := DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, formats.PNG, ft.Format)
	assert.Equal(t, "jpg", ft.Extension)
	assert.Equal(t, "image/png", ft.MimeType)
	assert.Equal(t, 12, ft.Width)
	assert.Equal(t, 7, ft.Height)

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello there"), 0644))
	ft, err = DetectFile(text)
	require.NoError(t, err)
	assert.Equal(t, formats.Unknown, ft.Format)
	assert.Zero(t, ft.Width)
}

func TestAnalyze_Actions(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	misnamed := filepath.Join(dir, "b.jpg")
	jpg := filepath.Join(dir, "c.jpg")
	writeImage(t, png, formats.PNG)
	writeImage(t, misnamed, formats.PNG)
	writeImage(t, jpg, formats.JPEG)

	report, err := Analyze(png, options(t, "jpg"))
	require.NoError(t, err)
	assert.Equal(t, convert.ActionTranscode, report.Action)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), report.Destination)
	assert.Empty(t, report.Backup)
	assert.Empty(t, report.Tools)

	report, err = Analyze(misnamed, options(t, "png"))
	require.NoError(t, err)
	assert.Equal(t, convert.ActionRename, report.Action)
	assert.Equal(t, filepath.Join(dir, "b.png"), report.Destination)

	report, err = Analyze(jpg, options(t, "jpg"))
	require.NoError(t, err)
	assert.Equal(t, convert.ActionSkipCorrect, report.Action)
	assert.Empty(t, report.Destination)

	// nothing was touched
	assert.FileExists(t, png)
	assert.FileExists(t, misnamed)
	assert.NoFileExists(t, filepath.Join(dir, "a.jpg"))
}

func TestAnalyze_Conflicts(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	writeImage(t, png, formats.PNG)
	writeImage(t, filepath.Join(dir, "a.gif"), formats.GIF)

	report, err := Analyze(png, options(t, "gif"))
	require.NoError(t, err)
	assert.Equal(t, convert.BackupOld, report.Backup)

	misnamed := filepath.Join(dir, "b.jpg")
	writeImage(t, misnamed, formats.GIF)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.gif"), []byte("x"), 0644))

	report, err = Analyze(misnamed, options(t, "gif"))
	require.NoError(t, err)
	assert.Equal(t, convert.ActionRename, report.Action)
	assert.Equal(t, convert.BackupExisting, report.Backup)
}

func TestAnalyze_ExternalTools(t *testing.T) {
	dir := t.TempDir()
	webp := filepath.Join(dir, "a.webp")
	require.NoError(t, os.WriteFile(webp, []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), 0644))

	opts := options(t, "avif")
	opts.Tools.DWebP = filepath.Join(dir, "not-installed-dwebp")
	opts.Tools.AVIFEnc = ""

	report, err := Analyze(webp, opts)
	require.NoError(t, err)
	assert.Equal(t, convert.ActionDelegate, report.Action)
	assert.Equal(t, []string{opts.Tools.DWebP, ""}, report.Tools)
	assert.Equal(t, []string{opts.Tools.DWebP, "(unset)"}, report.MissingTools)
	assert.True(t, report.Blocked())
}

func TestAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Analyze(filepath.Join(dir, "missing.png"), options(t, "png"))
	assert.Error(t, err)

	_, err = Analyze(dir, options(t, "png"))
	assert.Error(t, err)

	reports := AnalyzeFiles([]string{filepath.Join(dir, "missing.png")}, options(t, "png"))
	require.Len(t, reports, 1)
	assert.Error(t, reports[0].Err)
	assert.True(t, reports[0].Blocked())
}

func TestAnalyzeTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	writeImage(t, filepath.Join(root, "top.png"), formats.PNG)
	writeImage(t, filepath.Join(root, "sub", "inner.png"), formats.PNG)

	reports, err := AnalyzeTree(root, true, false, options(t, "jpg"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "top.png", filepath.Base(reports[0].Path))

	reports, err = AnalyzeTree(root, true, true, options(t, "jpg"))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "top.png", filepath.Base(reports[0].Path))
	assert.Equal(t, "inner.png", filepath.Base(reports[1].Path))
}

func TestReports(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "a.png")
	writeImage(t, png, formats.PNG)
	writeImage(t, filepath.Join(dir, "a.tif"), formats.TIFF)

	report, err := Analyze(png, options(t, "tif"))
	require.NoError(t, err)

	styled := GenerateReport(report)
	assert.Contains(t, styled, "a.png")
	assert.Contains(t, styled, "a.tif")
	assert.Contains(t, styled, "12x7")

	plain := GenerateSimplifiedReport(report)
	assert.Contains(t, plain, "format: png\n")
	assert.Contains(t, plain, "action: transcode\n")
	assert.Contains(t, plain, "dimensions: 12x7\n")
	assert.Contains(t, plain, "backup: old\n")

	missing := AnalyzeFiles([]string{filepath.Join(dir, "gone.png")}, options(t, "tif"))
	summary := GenerateSummary(append(missing, report))
	assert.Contains(t, summary, "2 files")
	assert.Contains(t, summary, "transcode: 1")
	assert.Contains(t, summary, "1 could not be read")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KiB", formatSize(1536))
	assert.Equal(t, "2.0 MiB", formatSize(2*1024*1024))
}
