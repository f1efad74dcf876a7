package tui

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/ui"
)

type entryKind int

const (
	entryBatch entryKind = iota
	entryFolder
	entryOverloaded
	entryFailed
)

type feedEntry struct {
	kind   entryKind
	path   string
	files  int
	size   int64
	errMsg string
}

type errorEntry struct {
	path string
	err  string
	time time.Time
}

type feedView struct {
	entries      []feedEntry  // unbounded history
	errors       []errorEntry // never evicted
	scrollOffset int          // viewport offset into entries
	autoScroll   bool         // follow new entries
}

func newFeedView() feedView {
	return feedView{autoScroll: true}
}

func (f *feedView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.BatchSaved:
		f.entries = append(f.entries, feedEntry{kind: entryBatch, path: ev.Path, files: ev.Files, size: ev.Size})

	case event.FolderSaved:
		f.entries = append(f.entries, feedEntry{kind: entryFolder, path: ev.Path})

	case event.FolderOverloaded:
		f.entries = append(f.entries, feedEntry{kind: entryOverloaded, path: ev.Path})

	case event.UnitFailed:
		errMsg := ui.EventError(ev)
		f.entries = append(f.entries, feedEntry{kind: entryFailed, path: ev.Path, errMsg: errMsg})
		f.errors = append(f.errors, errorEntry{path: ev.Path, err: errMsg, time: ev.Timestamp})

	case event.FolderListed, event.FolderCreated:
	}
}

// scrollDown moves the viewport down one line and disables autoScroll.
func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

// scrollUp moves the viewport up one line and disables autoScroll.
func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

// scrollToTop jumps to the first entry.
func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

// scrollToBottom jumps to the most recent entry and re-enables autoScroll.
func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(width, height int, errorsOnly bool) string {
	if width < 20 {
		width = 20
	}

	if errorsOnly {
		if len(f.errors) == 0 {
			return stylePathDir.Render("  no errors") + "\n"
		}
		return styleDivider.Render(fmt.Sprintf("─ errors (%d)", len(f.errors))) + "\n" +
			f.renderErrors(height-1)
	}

	errCount := min(len(f.errors), 5)
	dividers := 0
	if errCount > 0 {
		dividers++
	}
	if len(f.entries) > 0 {
		dividers++
	}

	viewport := max(height-errCount-dividers, 1)

	maxOffset := max(len(f.entries)-viewport, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = max(min(f.scrollOffset, maxOffset), 0)

	var b strings.Builder

	if lines := f.renderViewport(viewport); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ saved (%d)", len(f.entries))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	// Errors pinned at bottom.
	if lines := f.renderErrors(errCount); lines != "" {
		b.WriteString(styleDivider.Render(fmt.Sprintf("─ errors (%d)", len(f.errors))))
		b.WriteByte('\n')
		b.WriteString(lines)
	}

	return b.String()
}

func (f *feedView) renderViewport(height int) string {
	if len(f.entries) == 0 {
		return ""
	}

	var b strings.Builder
	end := min(f.scrollOffset+height, len(f.entries))
	for _, e := range f.entries[f.scrollOffset:end] {
		var line string
		p := styledPath(e.path)
		switch e.kind {
		case entryBatch:
			line = fmt.Sprintf("  %s  %s  %s  %s",
				styleIconDone.Render("✓"), p,
				styleRate.Render(ui.FormatCount(int64(e.files))+" files"),
				styleCount.Render(ui.FormatBytes(e.size)))
		case entryFolder:
			line = fmt.Sprintf("  %s  %s/", styleIconDone.Render("✓"), p)
		case entryOverloaded:
			line = fmt.Sprintf("  %s  %s/  %s", styleIconOverloaded.Render("↯"), p,
				styleIconOverloaded.Render("too large, walking"))
		case entryFailed:
			line = fmt.Sprintf("  %s  %s  %s", styleIconFailed.Render("✗"), p, styleError.Render(e.errMsg))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *feedView) renderErrors(maxLines int) string {
	if len(f.errors) == 0 || maxLines <= 0 {
		return ""
	}

	var b strings.Builder
	// Show the most recent errors (tail).
	start := max(len(f.errors)-maxLines, 0)
	for _, e := range f.errors[start:] {
		line := fmt.Sprintf("  %s  %s  %s",
			styleIconFailed.Render("✗"),
			styleErrorPath.Render(ui.FolderPath(e.path)),
			styleError.Render(e.err))
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// styledPath dims the parent of a share path so the last element stands out.
func styledPath(rel string) string {
	full := ui.FolderPath(rel)
	dir, base := path.Split(full)
	if base == "" || dir == "/" {
		return stylePathBase.Render(full)
	}
	return stylePathDir.Render(dir) + stylePathBase.Render(base)
}
