// BYZRA ⸻ internal/convert/outcome.go
// per-file terminal states and run summaries

package convert

import (
	"fmt"
	"maps"
	"strings"

	"morphra/internal/formats"
)

type Outcome int

const (
	Failed Outcome = iota
	SkippedNonImage
	SkippedAlreadyCorrect
	RenamedOnly
	Converted
)

func (o Outcome) String() string {
	switch o {
	case SkippedNonImage:
		return "skipped-non-image"
	case SkippedAlreadyCorrect:
		return "skipped-already-correct"
	case RenamedOnly:
		return "renamed-only"
	case Converted:
		return "converted"
	default:
		return "failed"
	}
}

// what the converter is going to do with a file
type Action int

const (
	ActionSkipNonImage Action = iota
	ActionSkipCorrect
	ActionRename
	ActionTranscode
	ActionDelegate
)

func (a Action) String() string {
	switch a {
	case ActionSkipNonImage:
		return "skip (not an image)"
	case ActionSkipCorrect:
		return "skip (already correct)"
	case ActionRename:
		return "rename extension"
	case ActionTranscode:
		return "transcode"
	default:
		return "external decoder"
	}
}

// classification before action: the extension never decides what a file is,
// only whether a rename alone is enough. the extension is compared with the
// token as given, so a.tif is correct for "tif" but renamed to a.tiff for "tiff"
func Decide(detected formats.FormatTag, ext string, target formats.Target) Action {
	if detected == formats.Unknown {
		return ActionSkipNonImage
	}

	if detected == target.Format {
		if strings.EqualFold(ext, target.Ext) {
			return ActionSkipCorrect
		}
		return ActionRename
	}

	if detected.External() {
		return ActionDelegate
	}

	return ActionTranscode
}

// outcome counts of one batch
type Summary struct {
	Total  int
	Counts map[Outcome]int
}

func NewSummary() Summary {
	return Summary{Counts: make(map[Outcome]int)}
}

func (s *Summary) Add(o Outcome) {
	if s.Counts == nil {
		s.Counts = make(map[Outcome]int)
	}
	s.Total++
	s.Counts[o]++
}

// independent copy, safe to hand to another goroutine
func (s Summary) Clone() Summary {
	c := Summary{Total: s.Total, Counts: make(map[Outcome]int, len(s.Counts))}
	maps.Copy(c.Counts, s.Counts)
	return c
}

func (s Summary) Failed() int {
	return s.Counts[Failed]
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files: %d converted, %d renamed, %d already correct, %d not images, %d failed",
		s.Total,
		s.Counts[Converted],
		s.Counts[RenamedOnly],
		s.Counts[SkippedAlreadyCorrect],
		s.Counts[SkippedNonImage],
		s.Counts[Failed])
}
