package viewer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitScale(t *testing.T) {
	assert.Equal(t, 0.5, FitScale(image.Pt(400, 400), image.Pt(800, 450)))
	assert.Equal(t, 2.0, FitScale(image.Pt(800, 900), image.Pt(400, 225)))
	assert.Equal(t, 0.0, FitScale(image.Pt(400, 400), image.Pt(0, 0)))
}

func TestTransformCentreAndPan(t *testing.T) {
	viewport := image.Pt(800, 600)
	frame := image.Pt(400, 300)

	s := Snapshot{Frames: 1, Zoom: 1}
	m := s.Transform(viewport, frame)
	assert.Equal(t, Point{X: 400, Y: 300}, Apply(m, Point{X: 200, Y: 150}))
	assert.Equal(t, Point{X: 0, Y: 0}, Apply(m, Point{}))

	s.Zoom = 2
	s.Pan = Point{X: 30, Y: -10}
	m = s.Transform(viewport, frame)

	// the frame centre follows the pan offset regardless of zoom
	assert.Equal(t, Point{X: 430, Y: 290}, Apply(m, Point{X: 200, Y: 150}))
	// one frame pixel spans fit*zoom viewport pixels
	right := Apply(m, Point{X: 201, Y: 150})
	assert.InDelta(t, 4.0, right.X-430, 1e-9)
}

func TestRenderPlaceholderWhenEmpty(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 10))
	Render(dst, nil, Snapshot{})
	assert.Equal(t, Background, dst.RGBAAt(10, 5))
}

func TestRenderDrawsFrame(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	frame := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: red}, image.Point{}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Render(dst, frame, Snapshot{Frames: 1, Zoom: 1})

	// fitted to 100x50, centred vertically
	assert.Equal(t, red, dst.RGBAAt(50, 50))
	assert.Equal(t, Background, dst.RGBAAt(50, 5))

	// panned far off screen leaves only background
	Render(dst, frame, Snapshot{Frames: 1, Zoom: 1, Pan: Point{X: 500}})
	assert.Equal(t, Background, dst.RGBAAt(50, 50))

	// zoomed in fills the whole viewport
	Render(dst, frame, Snapshot{Frames: 1, Zoom: MaxZoom})
	assert.Equal(t, red, dst.RGBAAt(50, 5))
}
