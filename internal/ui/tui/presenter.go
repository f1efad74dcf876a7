package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/sharesave/internal/config"
	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/stats"
	"github.com/bamsammich/sharesave/internal/ui"
)

// Config configures the TUI presenter.
type Config struct {
	Stats *stats.Collector
	Title string // share name
	Dest  string // destination path
	Theme config.ThemeConfig
	// OnQuit is called when the user quits while the run is in progress.
	OnQuit func()
}

// Presenter wraps a Bubble Tea program and implements ui.Presenter.
type Presenter struct {
	cfg   Config
	model Model
}

var _ ui.Presenter = (*Presenter)(nil)

// NewPresenter creates a new TUI presenter.
func NewPresenter(cfg Config) *Presenter {
	ApplyTheme(cfg.Theme)
	return &Presenter{cfg: cfg}
}

// Run starts the Bubble Tea program and blocks until the user quits. Events
// still arriving after that are drained so the engine never blocks.
func (p *Presenter) Run(events <-chan event.Event) error {
	p.model = NewModel(events, p.cfg.Stats, p.cfg.Title, p.cfg.Dest, p.cfg.OnQuit)
	prog := tea.NewProgram(
		p.model,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	finalModel, err := prog.Run()
	for range events {
	}
	if err != nil {
		return err
	}
	p.model = finalModel.(Model)
	return nil
}

// Summary returns the final completion summary line.
func (p *Presenter) Summary() string {
	return ui.CompletionSummary(p.cfg.Stats.Snapshot())
}
