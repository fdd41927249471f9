package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format.
// Rounding to milliseconds happens before splitting so 59.9997s carries
// into the next minute instead of printing 60.000 seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Round(time.Millisecond).Milliseconds()
	hours := ms / 3600000
	minutes := ms / 60000 % 60
	secs := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, ms%1000)
}

// FormatSeconds renders a media time in seconds as MM:SS.s for labels
func FormatSeconds(t float64) string {
	if t < 0 {
		t = 0
	}
	minutes := int(t / 60)
	return fmt.Sprintf("%02d:%04.1f", minutes, t-float64(minutes*60))
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
