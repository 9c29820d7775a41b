package formats

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{uint8(x * 30), uint8(y * 40), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewCodec_QualityBounds(t *testing.T) {
	assert.Equal(t, DefaultJPEGQuality, NewCodec(0, false).JPEGQuality)
	assert.Equal(t, DefaultJPEGQuality, NewCodec(101, false).JPEGQuality)
	assert.Equal(t, 80, NewCodec(80, false).JPEGQuality)
}

func TestCodec_EncodeEveryFormat(t *testing.T) {
	codec := NewCodec(90, false)
	img, err := codec.Decode(testPNG(t))
	require.NoError(t, err)

	for _, format := range []FormatTag{PNG, JPEG, GIF, TIFF} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, codec.Encode(&buf, img, format))
			assert.Equal(t, format, Detect(buf.Bytes()))

			decoded, err := codec.Decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, img.Bounds().Size(), decoded.Bounds().Size())
		})
	}

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, img, BMP))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("BM")))
}

func TestCodec_EncodeExternalFormatFails(t *testing.T) {
	codec := NewCodec(90, false)
	img, err := codec.Decode(testPNG(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, codec.Encode(&buf, img, WebP))
	assert.Error(t, codec.Encode(&buf, img, AVIF))
	assert.False(t, CanEncode(AVIF))
	assert.True(t, CanEncode(BMP))
}

func TestCodec_DecodeGarbage(t *testing.T) {
	codec := NewCodec(90, false)

	// right magic, broken payload
	_, err := codec.Decode([]byte{137, 80, 78, 71, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestCodec_TranscodeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(src, testPNG(t), 0644))

	codec := NewCodec(90, false)
	require.NoError(t, codec.TranscodeFile(src, dst, JPEG))

	tag, err := DetectFile(dst)
	require.NoError(t, err)
	assert.Equal(t, JPEG, tag)
}

func TestCodec_EncodeFileRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.webp")

	codec := NewCodec(90, false)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	require.Error(t, codec.EncodeFile(dst, img, WebP))
	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}
