package domain

import "fmt"

// NotAvailable is shown for optional numbers the extractor did not report
const NotAvailable = "N/A"

// FormatDuration renders seconds as M:SS
func FormatDuration(seconds *int64) string {
	if seconds == nil || *seconds < 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%d:%02d", *seconds/60, *seconds%60)
}

// FormatViews renders a view count with a K or M suffix
func FormatViews(views *int64) string {
	if views == nil || *views < 0 {
		return NotAvailable
	}
	v := *views
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	default:
		return fmt.Sprintf("%d", v)
	}
}

// FormatSize renders a byte count using binary units
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGT"[exp])
}
