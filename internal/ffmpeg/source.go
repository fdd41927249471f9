package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/nfnt/resize"

	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/pkg/util"
)

var (
	errNoFrame      = errors.New("no frame decoded at current position")
	errSourceClosed = errors.New("video source closed")
)

// Source is a seekable video backed by ffmpeg. Every seek decodes exactly
// one frame at the target time into memory; Rasterize scales that frame.
type Source struct {
	exec *Executor
	info *VideoInfo

	mu       sync.Mutex
	frame    *image.RGBA
	position float64
	closed   bool
}

// OpenSource probes path and returns a Source ready for seeking.
func (e *Executor) OpenSource(ctx context.Context, path string) (*Source, error) {
	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", frames.ErrLoadFailure, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no video stream", frames.ErrLoadFailure, path)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s reports no duration", frames.ErrLoadFailure, path)
	}

	return &Source{exec: e, info: info}, nil
}

// Open implements frames.Opener.
func (e *Executor) Open(ctx context.Context, path string) (frames.Source, error) {
	src, err := e.OpenSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Info returns the probed metadata.
func (s *Source) Info() VideoInfo {
	return *s.info
}

// Duration returns the video length in seconds.
func (s *Source) Duration() float64 {
	return s.info.Duration.Seconds()
}

// NaturalSize returns the coded frame size.
func (s *Source) NaturalSize() (int, int) {
	return s.info.Width, s.info.Height
}

// Position returns the time of the last settled seek.
func (s *Source) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Seek decodes the frame at t in the background. The channel receives the
// outcome once the frame is in memory.
func (s *Source) Seek(ctx context.Context, t float64) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.decodeAt(ctx, t)
	}()
	return done
}

func (s *Source) decodeAt(ctx context.Context, t float64) error {
	w, h := s.info.Width, s.info.Height
	at := time.Duration(t * float64(time.Second))

	data, err := s.exec.Output(ctx,
		"-noautorotate",
		"-ss", util.FormatDuration(at),
		"-i", s.info.FilePath,
		"-map", "0:v:0",
		"-frames:v", "1",
		"-vf", NewFilterBuilder().Scale(w, h).Build(),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	if err != nil {
		return err
	}

	want := w * h * 4
	if len(data) < want {
		return fmt.Errorf("decode at %v: got %d bytes, want %d", at, len(data), want)
	}

	img := &image.RGBA{
		Pix:    data[:want],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSourceClosed
	}
	s.frame = img
	s.position = t
	return nil
}

// Rasterize draws the current frame into dst, scaled to dst's bounds.
func (s *Source) Rasterize(dst draw.Image) error {
	s.mu.Lock()
	frame, closed := s.frame, s.closed
	s.mu.Unlock()

	if closed {
		return errSourceClosed
	}
	if frame == nil {
		return errNoFrame
	}

	bounds := dst.Bounds()
	var src image.Image = frame
	if bounds.Dx() != frame.Rect.Dx() || bounds.Dy() != frame.Rect.Dy() {
		src = resize.Resize(uint(bounds.Dx()), uint(bounds.Dy()), frame, resize.Bilinear)
	}

	draw.Draw(dst, bounds, src, src.Bounds().Min, draw.Src)
	return nil
}

// Close drops the decoded frame buffer. Seeks still in flight are discarded.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
	return nil
}
