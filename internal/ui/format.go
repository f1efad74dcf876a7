package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bamsammich/sharesave/internal/stats"
)

// FormatRate formats a bytes-per-second rate in the same units as
// FormatBytes.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return stats.FormatBytes(int64(math.Round(bytesPerSec))) + "/s"
}

// FormatCount formats an integer with comma thousands separators.
func FormatCount(n int64) string {
	digits := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + string(out)
}

// FormatBytes wraps stats.FormatBytes for UI use.
func FormatBytes(b int64) string {
	return stats.FormatBytes(b)
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FolderPath renders a share-relative folder path for display. The share
// root is "/".
func FolderPath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	return "/" + strings.TrimPrefix(p, "/")
}

// EventError returns the error text of ev, or "error" when it carries none.
func EventError(ev Event) string {
	if ev.Error != nil {
		return ev.Error.Error()
	}
	return "error"
}
