package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/sharesave/internal/stats"
)

// plainPresenter outputs one line per saved batch or folder to stdout,
// and periodic progress to stderr when not a TTY.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.ReadTicker
	verbose bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	path := FolderPath(ev.Path)
	switch ev.Type {
	case FolderListed:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  listed %d files %d folders\n", path, ev.Files, ev.Folders)
		}
	case BatchSaved:
		fmt.Fprintf(p.w, "%s  %s files  %s\n", path, FormatCount(int64(ev.Files)), FormatBytes(ev.Size))
	case FolderSaved:
		fmt.Fprintf(p.w, "%s  saved\n", path)
	case FolderOverloaded:
		fmt.Fprintf(p.w, "%s  too large, walking\n", path)
	case FolderCreated:
		// The walk that follows reports the contents.
	case UnitFailed:
		fmt.Fprintf(p.w, "%s  %s\n", path, EventError(ev))
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "progress: %s files %s %s folders %s walked %s %s pending\n",
		FormatCount(snap.SavedFiles),
		FormatBytes(snap.SavedBytes),
		FormatCount(snap.SavedFolders),
		FormatCount(snap.WalkedFolders),
		FormatRate(p.stats.RollingSpeed(10)),
		FormatCount(snap.Outstanding),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
