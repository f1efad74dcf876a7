package ui

import (
	"fmt"
	"io"
	"path"
	"time"
	"unicode/utf8"

	"github.com/bamsammich/sharesave/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a TTY display with a scrolling feed of saved
// batches and folders and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	verbose bool
	width   int // terminal columns; 0 disables path eliding

	hudDrawn    bool
	lastHUDDraw time.Time
}

const (
	hudLines       = 2
	sparklineWidth = 20
	hudMinInterval = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) error {
	// Fire first tick quickly to seed the ring buffer, then switch to 1s.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw while remote batch tasks are still polling.
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case BatchSaved:
		p.feedLine("✓  %s  %s files  %10s", p.styledPath(ev.Path),
			FormatCount(int64(ev.Files)), FormatBytes(ev.Size))

	case FolderSaved:
		p.feedLine("✓  %s/", p.styledPath(ev.Path))

	case FolderOverloaded:
		p.feedLine("↯  %s/  %stoo large, walking%s", p.styledPath(ev.Path), ansiDim, ansiReset)

	case FolderListed:
		if p.verbose {
			p.feedLine("·  %s/  %s%d files %d folders%s", p.styledPath(ev.Path),
				ansiDim, ev.Files, ev.Folders, ansiReset)
		}

	case UnitFailed:
		p.feedLine("✗  %s  %s", p.styledPath(ev.Path), EventError(ev))

	case FolderCreated:
	}
}

// feedLine prints one line above the HUD.
func (p *hudPresenter) feedLine(format string, args ...any) {
	p.clearHUD()
	fmt.Fprintf(p.w, format+"\n", args...)
	p.drawHUD()
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	// Line 1: throughput sparkline + speed + byte total.
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s   %s saved\n",
		spark, FormatRate(p.stats.RollingSpeed(10)), FormatBytes(snap.SavedBytes))

	// Line 2: counters.
	fmt.Fprintf(p.w, " %s%s%s files   %s folders   %s walked   %s pending   %s\n",
		ansiBold, FormatCount(snap.SavedFiles), ansiReset,
		FormatCount(snap.SavedFolders),
		FormatCount(snap.WalkedFolders),
		FormatCount(snap.Outstanding),
		FormatDuration(snap.Elapsed),
	)

	p.hudDrawn = true
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", hudLines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// styledPath returns the share path with the parent portion dimmed so the
// folder name stands out. Paths longer than half the terminal lose the head
// of their parent portion.
func (p *hudPresenter) styledPath(rel string) string {
	full := FolderPath(rel)
	dir, base := path.Split(full)
	if limit := p.width / 2; p.width > 0 && utf8.RuneCountInString(full) > limit {
		keep := limit - utf8.RuneCountInString(base) - 1
		if r := []rune(dir); keep > 0 && keep < len(r) {
			dir = "…" + string(r[len(r)-keep:])
		} else if keep <= 0 {
			dir = "…/"
		}
	}
	if base == "" || dir == "/" {
		return full
	}
	return fmt.Sprintf("%s%s%s%s", ansiDim, dir, ansiReset, base)
}
