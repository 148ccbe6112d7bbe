package ui

import "fmt"

// Clock renders seconds as mm:ss. Negative values show as 00:00; minutes are not capped.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders a slider value: 45s, 2m, 1m30s. Minutes never roll into hours.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	m, s := seconds/60, seconds%60
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case s == 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dm%ds", m, s)
	}
}
