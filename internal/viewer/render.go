package viewer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Background is painted behind the frame and used as the empty placeholder.
var Background = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}

// FitScale returns the factor that fits a frame of size frame entirely
// inside viewport at zoom 1.
func FitScale(viewport, frame image.Point) float64 {
	if frame.X <= 0 || frame.Y <= 0 || viewport.X <= 0 || viewport.Y <= 0 {
		return 0
	}
	return min(float64(viewport.X)/float64(frame.X), float64(viewport.Y)/float64(frame.Y))
}

// Transform maps frame pixel coordinates to viewport coordinates. The frame
// is first fitted and centred in the viewport, then scaled by the zoom level
// and translated by pan/zoom about the centre, which leaves the pan offset
// in unscaled viewport pixels.
func (s Snapshot) Transform(viewport, frame image.Point) f64.Aff3 {
	k := s.Zoom * FitScale(viewport, frame)
	cx := float64(viewport.X)/2 + s.Pan.X
	cy := float64(viewport.Y)/2 + s.Pan.Y

	return f64.Aff3{
		k, 0, cx - k*float64(frame.X)/2,
		0, k, cy - k*float64(frame.Y)/2,
	}
}

// Apply maps p through the affine transform m.
func Apply(m f64.Aff3, p Point) Point {
	return Point{
		X: m[0]*p.X + m[1]*p.Y + m[2],
		Y: m[3]*p.X + m[4]*p.Y + m[5],
	}
}

// Render draws frame into dst under the snapshot's transform. A nil frame
// or an empty snapshot leaves only the background.
func Render(dst draw.Image, frame image.Image, s Snapshot) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, &image.Uniform{C: Background}, image.Point{}, draw.Src)

	if frame == nil || s.Empty() {
		return
	}

	fb := frame.Bounds()
	m := s.Transform(bounds.Size(), fb.Size())

	// account for non-zero origins on either side
	m[2] += float64(bounds.Min.X) - m[0]*float64(fb.Min.X)
	m[5] += float64(bounds.Min.Y) - m[4]*float64(fb.Min.Y)

	draw.ApproxBiLinear.Transform(dst, m, frame, fb, draw.Over, nil)
}
