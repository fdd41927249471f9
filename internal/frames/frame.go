package frames

import (
	"context"
	"encoding/base64"
	"image/draw"
)

// MIMETypeJPEG is the encoding of every sampled frame.
const MIMETypeJPEG = "image/jpeg"

// Source is a decodable video the extractor can drive one seek at a time.
type Source interface {
	// Duration returns the length of the video in seconds.
	Duration() float64

	// NaturalSize returns the decoded frame dimensions in pixels.
	NaturalSize() (width, height int)

	// Seek moves the playback position to t seconds. The returned channel
	// receives exactly one value once the seek has settled: nil on success.
	Seek(ctx context.Context, t float64) <-chan error

	// Rasterize draws the frame at the current position into dst, scaled to
	// fill its bounds and replacing any previous content.
	Rasterize(dst draw.Image) error

	// Close releases the decoder and any buffered frame data.
	Close() error
}

// Opener loads a Source from a path.
type Opener interface {
	Open(ctx context.Context, path string) (Source, error)
}

// ProgressFunc receives extraction progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// Frame is one encoded still sampled from the video. Frames are never
// modified after Extract returns them.
type Frame struct {
	Index  int
	Time   float64
	Width  int
	Height int
	Data   []byte
}

// DataURI returns the frame as a self-contained data URI.
func (f Frame) DataURI() string {
	return "data:" + MIMETypeJPEG + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Sequence is the ordered output of one extraction.
type Sequence []Frame

// Len returns the number of frames.
func (s Sequence) Len() int {
	return len(s)
}

// At returns the frame at index i and whether it exists.
func (s Sequence) At(i int) (Frame, bool) {
	if i < 0 || i >= len(s) {
		return Frame{}, false
	}
	return s[i], true
}

// DataURIs returns every frame encoded as a data URI, in order.
func (s Sequence) DataURIs() []string {
	uris := make([]string, len(s))
	for i, f := range s {
		uris[i] = f.DataURI()
	}
	return uris
}
