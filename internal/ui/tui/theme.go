package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/sharesave/internal/config"
)

// palette maps color roles to terminal colors. The defaults are Catppuccin
// Mocha; [theme] in the config file overrides individual roles.
type palette struct {
	ok, accent, warn, bad, rate, label, muted, faint, text lipgloss.Color
}

var defaultPalette = palette{
	ok:     "#a6e3a1",
	accent: "#89b4fa",
	warn:   "#f9e2af",
	bad:    "#f38ba8",
	rate:   "#94e2d5",
	label:  "#cba6f7",
	muted:  "#5a6278",
	faint:  "#3a4055",
	text:   "#cdd6f4",
}

var (
	styleHeader         lipgloss.Style
	styleHeaderLabel    lipgloss.Style
	styleDivider        lipgloss.Style
	styleIconDone       lipgloss.Style
	styleIconFailed     lipgloss.Style
	styleIconOverloaded lipgloss.Style
	stylePathBase       lipgloss.Style
	stylePathDir        lipgloss.Style
	styleCount          lipgloss.Style
	styleRate           lipgloss.Style
	stylePending        lipgloss.Style
	styleError          lipgloss.Style
	styleErrorPath      lipgloss.Style
	styleKey            lipgloss.Style
	styleKeyLabel       lipgloss.Style
	styleBigNumber      lipgloss.Style
	styleSparkline      lipgloss.Style
	styleStatus         lipgloss.Style
	stylePrompt         lipgloss.Style
	styleInput          lipgloss.Style
)

func init() {
	usePalette(defaultPalette)
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func usePalette(p palette) {
	styleHeader = fg(p.text).Bold(true)
	styleHeaderLabel = fg(p.label).Bold(true)
	styleDivider = fg(p.faint)
	styleIconDone = fg(p.ok)
	styleIconFailed = fg(p.bad)
	styleIconOverloaded = fg(p.warn)
	stylePathBase = fg(p.text)
	stylePathDir = fg(p.muted)
	styleCount = fg(p.muted)
	styleRate = fg(p.rate)
	stylePending = fg(p.accent)
	styleError = fg(p.bad)
	styleErrorPath = fg(p.bad).Bold(true)
	styleKey = fg(p.label).Bold(true)
	styleKeyLabel = fg(p.muted)
	styleBigNumber = fg(p.ok).Bold(true)
	styleSparkline = fg(p.accent)
	styleStatus = fg(p.warn).Italic(true)
	stylePrompt = fg(p.muted)
	styleInput = fg(p.text)
}

// ApplyTheme rebuilds every style from the default palette with the
// configured overrides applied. Config keys keep their color names.
func ApplyTheme(tc config.ThemeConfig) {
	p := defaultPalette
	for _, o := range []struct {
		v   *string
		dst *lipgloss.Color
	}{
		{tc.Green, &p.ok},
		{tc.Blue, &p.accent},
		{tc.Yellow, &p.warn},
		{tc.Red, &p.bad},
		{tc.Teal, &p.rate},
		{tc.Mauve, &p.label},
		{tc.Muted, &p.muted},
		{tc.Dim, &p.faint},
		{tc.Bright, &p.text},
	} {
		if o.v != nil && *o.v != "" {
			*o.dst = lipgloss.Color(*o.v)
		}
	}
	usePalette(p)
}
