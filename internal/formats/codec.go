// BYZRA ⸻ internal/formats/codec.go
// in-process decode/encode for png, jpeg, gif, tiff and bmp

package formats

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

const DefaultJPEGQuality = 95

// formats imaging can write
var encoders = map[FormatTag]imaging.Format{
	PNG:  imaging.PNG,
	JPEG: imaging.JPEG,
	GIF:  imaging.GIF,
	TIFF: imaging.TIFF,
	BMP:  imaging.BMP,
}

// wraps the pixel codec, treated as opaque by the converter
type Codec struct {
	// jpeg encoder quality, 1-100
	JPEGQuality int

	// apply EXIF orientation when decoding
	AutoOrient bool
}

func NewCodec(jpegQuality int, autoOrient bool) *Codec {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Codec{JPEGQuality: jpegQuality, AutoOrient: autoOrient}
}

// the codec can write this format
func CanEncode(format FormatTag) bool {
	_, ok := encoders[format]
	return ok
}

// decodes raster bytes
func (c *Codec) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(c.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// decodes an image file
func (c *Codec) DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return c.Decode(data)
}

// encodes img in the native encoding of format
func (c *Codec) Encode(w io.Writer, img image.Image, format FormatTag) error {
	enc, ok := encoders[format]
	if !ok {
		return fmt.Errorf("no in-process encoder for %s", format)
	}

	if err := imaging.Encode(w, img, enc, imaging.JPEGQuality(c.JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// writes img to path, removes the partial file on failure
func (c *Codec) EncodeFile(path string, img image.Image, format FormatTag) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := c.Encode(file, img, format); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}

	// sync to ensure writes are flushed
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}

// decodes src and writes dst in format
func (c *Codec) TranscodeFile(src, dst string, format FormatTag) error {
	img, err := c.DecodeFile(src)
	if err != nil {
		return err
	}
	return c.EncodeFile(dst, img, format)
}
