package frames

import (
	"fmt"
	"math"
	"strings"
)

// CanvasSize returns the raster dimensions for a video of the given natural
// size: the longer edge is capped at limit and the aspect ratio is kept.
// Videos already within the limit keep their natural size. A limit <= 0
// disables the cap.
func CanvasSize(width, height, limit int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if limit <= 0 || (width <= limit && height <= limit) {
		return width, height
	}

	if width >= height {
		h := int(math.Round(float64(height) * float64(limit) / float64(width)))
		return limit, max(h, 1)
	}
	w := int(math.Round(float64(width) * float64(limit) / float64(height)))
	return max(w, 1), limit
}

// SampleTimes returns n uniformly spaced timestamps i*duration/n. The last
// one is always strictly before duration so no seek targets end of stream.
func SampleTimes(duration float64, n int) []float64 {
	if n <= 0 || duration <= 0 {
		return nil
	}
	interval := duration / float64(n)
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * interval
	}
	return times
}

// ValidateMediaType accepts only video MIME types.
func ValidateMediaType(mimeType string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "video/") {
		return fmt.Errorf("%w: %q is not a video file", ErrInvalidInput, mimeType)
	}
	return nil
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
