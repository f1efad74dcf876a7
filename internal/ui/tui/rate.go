package tui

import (
	"fmt"
	"strings"

	"github.com/bamsammich/sharesave/internal/stats"
	"github.com/bamsammich/sharesave/internal/ui"
)

// rateView shows throughput history and the engine's work queue.
type rateView struct{}

func (rateView) view(width int, snap stats.Snapshot, collector stats.ReadTicker) string {
	if width < 20 {
		width = 20
	}

	var b strings.Builder

	// Big throughput number.
	speed := collector.RollingSpeed(5)
	b.WriteString("  " + styleBigNumber.Render(ui.FormatRate(speed)))
	b.WriteString("\n\n")

	// Full-width sparkline (60-second history).
	sparkWidth := max(width-4, 10)
	spark := ui.Sparkline(collector.SparklineData(sparkWidth), sparkWidth)
	b.WriteString("  " + styleSparkline.Render(spark))
	b.WriteString("\n\n")

	fps := collector.RollingFilesPerSec(5)
	fmt.Fprintf(&b, "  %s   %s   %s\n\n",
		styleRate.Render(ui.FormatCount(int64(fps))+" files/s"),
		styleCount.Render(ui.FormatCount(snap.SavedFiles)+" files"),
		styleCount.Render(ui.FormatCount(snap.SavedFolders)+" folders"),
	)

	fmt.Fprintf(&b, "  %s  %s walked   %s pending\n",
		styleDivider.Render("queue"),
		ui.FormatCount(snap.WalkedFolders),
		stylePending.Render(ui.FormatCount(snap.Outstanding)),
	)

	return b.String()
}
