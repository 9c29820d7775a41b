// BYZRA ⸻ internal/formats/formats.go
// content-based format detection

package formats

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// format of a file as told by its leading bytes
type FormatTag string

const (
	PNG     FormatTag = "png"
	JPEG    FormatTag = "jpeg"
	GIF     FormatTag = "gif"
	TIFF    FormatTag = "tiff"
	BMP     FormatTag = "bmp"
	WebP    FormatTag = "webp"
	AVIF    FormatTag = "avif"
	Unknown FormatTag = "unknown"
)

// longest signature we compare against
const HeaderSize = 4

type signature struct {
	tag   FormatTag
	magic []byte
}

// signatures are disjoint, order is not significant
var signatures = []signature{
	{PNG, []byte{137, 80, 78, 71}},
	{JPEG, []byte{255, 216, 255, 224}},
	{JPEG, []byte{255, 216, 255, 225}}, // canon
	{JPEG, []byte{255, 216, 255, 219}}, // what image/jpeg writes, keeps reruns idempotent
	{GIF, []byte{71, 73, 70, 56}},
	{WebP, []byte{82, 73, 70, 70}},
	{AVIF, []byte{0, 0, 0, 28}},
	{TIFF, []byte{0x49, 0x49, 0x2A, 0x00}},
	{TIFF, []byte{0x4D, 0x4D, 0x00, 0x2A}},
}

func (f FormatTag) String() string {
	return string(f)
}

// formats the in-process codec cannot decode
func (f FormatTag) External() bool {
	return f == WebP || f == AVIF
}

// classifies a buffer by its magic bytes, never fails
func Detect(data []byte) FormatTag {
	if len(data) < HeaderSize {
		return Unknown
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.tag
		}
	}

	return Unknown
}

// reads only the header of a file and classifies it
func DetectFile(path string) (FormatTag, error) {
	file, err := os.Open(path)
	if err != nil {
		return Unknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, fmt.Errorf("failed to read header: %w", err)
	}

	return Detect(header[:n]), nil
}
