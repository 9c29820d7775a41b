// BYZRA ⸻ internal/analyse/detector.go
// file type detection for reports: sniffed format, mime type and dimensions

package analyse

import (
	"fmt"
	"image"
	"os"

	// registers webp with image.DecodeConfig; png, jpeg, gif, bmp and tiff
	// come in through imaging
	_ "golang.org/x/image/webp"

	"morphra/internal/formats"
	"morphra/internal/util"
)

type FileType struct {
	Format    formats.FormatTag // sniffed, never guessed from the name
	Extension string            // as found on disk, lowercased
	MimeType  string
	Width     int // 0 when the header could not be read
	Height    int
}

var mimeTypes = map[formats.FormatTag]string{
	formats.PNG:  "image/png",
	formats.JPEG: "image/jpeg",
	formats.GIF:  "image/gif",
	formats.TIFF: "image/tiff",
	formats.BMP:  "image/bmp",
	formats.WebP: "image/webp",
	formats.AVIF: "image/avif",
}

func DetectFile(path string) (FileType, error) {
	format, err := formats.DetectFile(path)
	if err != nil {
		return FileType{}, err
	}

	ft := FileType{
		Format:    format,
		Extension: util.ExtOf(path),
		MimeType:  mimeTypes[format],
	}

	// avif has no go decoder, dimensions stay unknown
	if format != formats.Unknown && format != formats.AVIF {
		if w, h, err := dimensions(path); err == nil {
			ft.Width, ft.Height = w, h
		}
	}

	return ft, nil
}

// reads just enough of the file for the image header
func dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
