// ABOUTME: Duration formatting utilities for run reports
// ABOUTME: Renders elapsed run time as MM:SS or HH:MM:SS

package duration

import (
	"fmt"
	"time"
)

// Clock formats d as MM:SS, or HH:MM:SS from one hour up. Negative durations format as 00:00.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Round(time.Second).Seconds())

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Elapsed formats the time between start and end, or "-" when either is unset
func Elapsed(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return "-"
	}
	return Clock(end.Sub(start))
}
