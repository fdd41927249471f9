package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/kikiluvv/infinizoom/internal/viewer"
)

var (
	_ fyne.Scrollable   = (*ZoomSurface)(nil)
	_ desktop.Mouseable = (*ZoomSurface)(nil)
	_ desktop.Hoverable = (*ZoomSurface)(nil)
	_ fyne.Focusable    = (*ZoomSurface)(nil)
)

// ZoomSurface paints the current frame under the viewer transform and
// forwards wheel and pointer input to the viewer state.
type ZoomSurface struct {
	widget.BaseWidget

	state    *viewer.State
	frame    func() image.Image
	onChange func()
	onKey    func(fyne.KeyName) bool

	raster *canvas.Raster
	buf    *image.RGBA
	pixelW int
}

// NewZoomSurface creates a surface for state. frame returns the image for
// the current index; onChange runs after input changed the state and onKey
// receives keys typed while the surface has focus.
func NewZoomSurface(state *viewer.State, frame func() image.Image, onChange func(), onKey func(fyne.KeyName) bool) *ZoomSurface {
	s := &ZoomSurface{
		state:    state,
		frame:    frame,
		onChange: onChange,
		onKey:    onKey,
	}
	s.raster = canvas.NewRaster(s.paint)
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer is a private method to Fyne which links this widget to its renderer
func (s *ZoomSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.raster)
}

// MinSize keeps the surface usable in small windows
func (s *ZoomSurface) MinSize() fyne.Size {
	return fyne.NewSize(320, 180)
}

func (s *ZoomSurface) paint(w, h int) image.Image {
	if s.buf == nil || s.buf.Rect.Dx() != w || s.buf.Rect.Dy() != h {
		s.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	s.pixelW = w

	var img image.Image
	if !s.state.Empty() && s.frame != nil {
		img = s.frame()
	}
	viewer.Render(s.buf, img, s.state.Snapshot())
	return s.buf
}

// toPixels converts a widget position into raster pixels, the unit the
// viewer transform works in.
func (s *ZoomSurface) toPixels(pos fyne.Position) viewer.Point {
	scale := 1.0
	if width := s.Size().Width; width > 0 && s.pixelW > 0 {
		scale = float64(s.pixelW) / float64(width)
	}
	return viewer.Point{X: float64(pos.X) * scale, Y: float64(pos.Y) * scale}
}

// Redraw repaints the frame without touching the widget tree
func (s *ZoomSurface) Redraw() {
	s.raster.Refresh()
}

func (s *ZoomSurface) changed(ok bool) {
	if !ok {
		return
	}
	if s.onChange != nil {
		s.onChange()
		return
	}
	s.Redraw()
}

// Scrolled moves one frame per wheel notch. Fyne reports scrolling down as
// a negative DY.
func (s *ZoomSurface) Scrolled(ev *fyne.ScrollEvent) {
	s.changed(s.state.Wheel(-float64(ev.Scrolled.DY)))
}

// MouseDown starts a pan with the primary button and takes keyboard focus
func (s *ZoomSurface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(s); c != nil {
		c.Focus(s)
	}
	s.changed(s.state.PointerDown(s.toPixels(ev.Position)))
}

// MouseUp ends the pan
func (s *ZoomSurface) MouseUp(*desktop.MouseEvent) {
	s.changed(s.state.PointerUp())
}

// MouseIn is a no-op; hovering alone changes nothing
func (s *ZoomSurface) MouseIn(*desktop.MouseEvent) {}

// MouseMoved pans while the primary button is held
func (s *ZoomSurface) MouseMoved(ev *desktop.MouseEvent) {
	s.changed(s.state.PointerMove(s.toPixels(ev.Position)))
}

// MouseOut ends the pan when the pointer leaves the surface
func (s *ZoomSurface) MouseOut() {
	s.changed(s.state.PointerLeave())
}

// FocusGained is part of fyne.Focusable
func (s *ZoomSurface) FocusGained() {}

// FocusLost is part of fyne.Focusable
func (s *ZoomSurface) FocusLost() {}

// TypedRune ignores text input
func (s *ZoomSurface) TypedRune(rune) {}

// TypedKey forwards keys to the viewer while the surface has focus
func (s *ZoomSurface) TypedKey(ev *fyne.KeyEvent) {
	if s.onKey != nil {
		s.onKey(ev.Name)
	}
}
