// BYZRA ⸻ internal/util/style.go
// CLI visual style, color roles, spinner and progress bar

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

type Palette struct {
	Colors struct {
		Chrome string `toml:"chrome"`
		Heat   string `toml:"heat"`
		Hot    string `toml:"hot"`
		Gunmet string `toml:"gunmetal"`
		Void   string `toml:"void"`
		Steel  string `toml:"steel"`
	} `toml:"colors"`
}

// ╭─ STYLE DEFINITIONS ─────────────────────────╮
var (
	TTL lipgloss.Style // titles, success lines
	LBL lipgloss.Style // labels, headings
	SUB lipgloss.Style // secondary text
	NSH lipgloss.Style // paths and values
	WRN lipgloss.Style // warnings
	ERR lipgloss.Style // failures
	NLL lipgloss.Style // faint
	ORN lipgloss.Style // ornaments

	gradientA, gradientB string
)

func init() {
	palette := loadPalette()

	chrome := lipgloss.Color(palette.Colors.Chrome)
	heat := lipgloss.Color(palette.Colors.Heat)
	hot := lipgloss.Color(palette.Colors.Hot)
	gunmet := lipgloss.Color(palette.Colors.Gunmet)
	void := lipgloss.Color(palette.Colors.Void)
	steel := lipgloss.Color(palette.Colors.Steel)

	TTL = lipgloss.NewStyle().Foreground(heat).Bold(true)
	LBL = lipgloss.NewStyle().Foreground(heat).Bold(true)
	SUB = lipgloss.NewStyle().Foreground(gunmet)
	NSH = lipgloss.NewStyle().Foreground(chrome).Bold(true)
	WRN = lipgloss.NewStyle().Foreground(steel).Bold(true)
	ERR = lipgloss.NewStyle().Foreground(hot).Bold(true)
	NLL = lipgloss.NewStyle().Foreground(void).Faint(true)
	ORN = lipgloss.NewStyle().Foreground(gunmet).Bold(true)

	gradientA = palette.Colors.Heat
	gradientB = palette.Colors.Hot
}

func loadPalette() Palette {
	var palette Palette

	paths := []string{
		"palette.toml",
		"config/palette.toml",
		filepath.Join(os.Getenv("HOME"), ".morphra/config/palette.toml"),
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, &palette); err == nil {
			return palette
		}
	}

	// default values
	palette.Colors.Chrome = "#C0C0C0"
	palette.Colors.Heat = "#FF5C00"
	palette.Colors.Hot = "#FF007F"
	palette.Colors.Gunmet = "#444444"
	palette.Colors.Void = "#121212"
	palette.Colors.Steel = "#88AABB"

	return palette
}

// ╭─ ORNAMENT ──────────────────────────────────╮
var (
	Ornament = ORN.Render("›") // prefix UX lines
	Divider  = SUB.Render(strings.Repeat("─", 48))
)

func SuccessSymbol() string {
	return TTL.Render("[✓]")
}

func WarningSymbol() string {
	return WRN.Render("[!]")
}

func InfoSymbol() string {
	return NSH.Render("[i]")
}

func ErrorSymbol() string {
	return ERR.Render("[X]")
}

// ╭─ SPINNER ───────────────────────────────────╮
func SpinWhile(label string, fn func() (string, error)) (string, error) {
	s := spinner.New(spinner.WithSpinner(spinner.Meter))
	ticker := time.NewTicker(s.Spinner.FPS)
	defer ticker.Stop()

	done := make(chan struct{})
	stopped := make(chan struct{})
	result := make(chan struct {
		out string
		err error
	})

	go func() {
		defer close(stopped)
		frame := 0
		frames := s.Spinner.Frames
		for {
			select {
			case <-ticker.C:
				fmt.Printf("\r%s %s", ORN.Render(frames[frame]), LBL.Render(label))
				frame = (frame + 1) % len(frames)
			case <-done:
				return
			}
		}
	}()

	go func() {
		out, err := fn()
		result <- struct {
			out string
			err error
		}{out, err}
	}()

	res := <-result
	close(done)
	<-stopped
	ClearLine(os.Stdout)
	return res.out, res.err
}

// ╭─ PROGRESS ──────────────────────────────────╮
type ProgressBar struct {
	bar progress.Model
	out io.Writer
}

func NewProgressBar(out io.Writer, width int) *ProgressBar {
	bar := progress.New(
		progress.WithGradient(gradientA, gradientB),
		progress.WithWidth(width),
	)
	return &ProgressBar{bar: bar, out: out}
}

// one line: bar, counter and the current file
func (p *ProgressBar) Render(completed, total int, label string) string {
	percent := 1.0
	if total > 0 {
		percent = float64(completed) / float64(total)
	}
	return fmt.Sprintf("%s %s %s",
		p.bar.ViewAs(percent),
		NSH.Render(fmt.Sprintf("%d/%d", completed, total)),
		SUB.Render(label))
}

// redraws the bar in place
func (p *ProgressBar) Update(completed, total int, label string) {
	ClearLine(p.out)
	fmt.Fprint(p.out, p.Render(completed, total, label))
	if completed >= total {
		fmt.Fprintln(p.out)
	}
}

// ╭─ CLEAR ─────────────────────────────────────╮
func ClearLine(w io.Writer) {
	fmt.Fprint(w, "\r\033[2K")
}
