package analyzer

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatMillis renders a duration given in milliseconds with a unit that
// keeps two decimals meaningful.
func FormatMillis(ms float64) string {
	switch {
	case ms >= 1000:
		return fmt.Sprintf("%.2fs", ms/1000)
	case ms >= 1 || ms == 0:
		return fmt.Sprintf("%.2fms", ms)
	case ms > 0:
		return fmt.Sprintf("%.2fus", ms*1000)
	default:
		return fmt.Sprintf("%.2fms", ms)
	}
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// formatStatus renders a status with its icon, e.g. "⚠️ warning".
func formatStatus(s PerformanceStatus) string {
	return s.Icon() + " " + string(s)
}
