// BYZRA ⸻ internal/convert/errors.go
// failure categories, caught and logged at the converter boundary

package convert

import (
	"errors"

	"morphra/internal/formats"
)

var (
	// unreadable or unwritable path
	ErrIO = errors.New("file i/o failed")

	// target token outside the accepted set
	ErrUnsupportedTarget = formats.ErrUnknownTarget

	// decoder or encoder binary missing, crashed or wrote nothing
	ErrExternalProcess = errors.New("external process failed")

	// in-process codec rejected the bytes
	ErrEncode = errors.New("transcoding failed")
)
