// BYZRA ⸻ internal/formats/target.go
// target format tokens and their aliases

package formats

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrUnknownTarget = errors.New("unknown target format")

// requested output format
type Target struct {
	// canonical format (jpg → jpeg, tif → tiff)
	Format FormatTag

	// lowercased token as given, used as the output extension
	Ext string
}

// accepted tokens and what they mean
var targetTokens = map[string]FormatTag{
	"png":  PNG,
	"jpg":  JPEG,
	"jpeg": JPEG,
	"gif":  GIF,
	"bmp":  BMP,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WebP,
	"avif": AVIF,
}

// normalizes a target token, case-insensitive, leading dot tolerated
func ParseTarget(token string) (Target, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(token), "."))

	format, ok := targetTokens[ext]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, token)
	}

	return Target{Format: format, Ext: ext}, nil
}

// same output format, whatever the spelling
func (t Target) Equivalent(other Target) bool {
	return t.Format == other.Format
}

// output must be produced by an external encoder
func (t Target) External() bool {
	return t.Format.External()
}

func (t Target) String() string {
	return t.Ext
}

// list of accepted target tokens, sorted
func TargetTokens() []string {
	tokens := make([]string, 0, len(targetTokens))
	for token := range targetTokens {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)
	return tokens
}
