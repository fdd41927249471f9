package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/kikiluvv/infinizoom/internal/viewer"
)

// keyFor maps a typed key to a viewer command
func keyFor(name fyne.KeyName) viewer.Key {
	switch name {
	case fyne.KeyLeft:
		return viewer.KeyLeft
	case fyne.KeyRight:
		return viewer.KeyRight
	case fyne.KeySpace:
		return viewer.KeySpace
	case fyne.KeyR:
		return viewer.KeyReset
	}
	return viewer.KeyNone
}

// keySlider is a slider that hands viewer shortcuts to onKey before its own
// key handling, so navigation keeps working after the slider takes focus.
type keySlider struct {
	widget.Slider

	onKey func(fyne.KeyName) bool
}

func newKeySlider(min, max, step float64, onKey func(fyne.KeyName) bool) *keySlider {
	s := &keySlider{onKey: onKey}
	s.Min = min
	s.Max = max
	s.Step = step
	s.Orientation = widget.Horizontal
	s.ExtendBaseWidget(s)
	return s
}

// TypedKey forwards viewer shortcuts and leaves the rest to the slider
func (s *keySlider) TypedKey(ev *fyne.KeyEvent) {
	if s.onKey != nil && s.onKey(ev.Name) {
		return
	}
	s.Slider.TypedKey(ev)
}
