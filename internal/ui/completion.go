package ui

import (
	"fmt"

	"github.com/bamsammich/sharesave/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48,917  size 2.1 GiB  folders 12  walked 340  avg 641 MB/s  time 3m 17s
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.SavedBytes) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Failed {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  files %s  size %s  folders %s  walked %s  avg %s  time %s",
		icon,
		FormatCount(snap.SavedFiles),
		FormatBytes(snap.SavedBytes),
		FormatCount(snap.SavedFolders),
		FormatCount(snap.WalkedFolders),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)
}
