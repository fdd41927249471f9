package gui

import (
	"fmt"
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/viewer"
	"github.com/kikiluvv/infinizoom/pkg/util"
)

// viewPanel is the zoom viewer screen. All methods run on the UI goroutine.
type viewPanel struct {
	logger zerolog.Logger

	seq    frames.Sequence
	state  *viewer.State
	cache  *frameCache
	player *viewer.Player

	surface  *ZoomSurface
	position *keySlider
	zoom     *keySlider
	info     *widget.Label
	play     *widget.Button
	reset    *widget.Button
	export   *widget.Button

	content fyne.CanvasObject
}

func newViewPanel(logger zerolog.Logger, interval time.Duration, onExport func()) (*viewPanel, error) {
	cache, err := newFrameCache(defaultCacheSize)
	if err != nil {
		return nil, err
	}

	v := &viewPanel{
		logger: logger.With().Str("component", "viewer").Logger(),
		state:  viewer.NewState(0),
		cache:  cache,
	}

	v.player = viewer.NewPlayer(interval, fyne.Do, func() {
		if v.state.Tick() {
			v.refresh()
		}
	})

	v.surface = NewZoomSurface(v.state, v.currentImage, v.refresh, v.Key)

	v.position = newKeySlider(0, 1, 1, v.Key)
	v.position.OnChangeEnded = v.focusSurface
	v.position.OnChanged = func(val float64) {
		if v.state.SetPosition(int(val)) {
			v.refresh()
		}
	}

	v.zoom = newKeySlider(viewer.MinZoom, viewer.MaxZoom, 0.1, v.Key)
	v.zoom.Value = viewer.DefaultZoom
	v.zoom.OnChangeEnded = v.focusSurface
	v.zoom.OnChanged = func(val float64) {
		if v.state.SetZoom(val) {
			v.refresh()
		}
	}

	v.play = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), func() {
		if v.state.ToggleAutoPlay() {
			v.refresh()
		}
	})
	v.reset = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() {
		if v.state.Reset() {
			v.refresh()
		}
	})
	v.export = widget.NewButtonWithIcon("Export frames…", theme.DocumentSaveIcon(), onExport)
	v.info = widget.NewLabel("")

	controls := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Frame"), nil, v.position),
		container.NewBorder(nil, nil, widget.NewLabel("Zoom"), nil, v.zoom),
		container.NewHBox(v.play, v.reset, v.export, layout.NewSpacer(), v.info),
		widget.NewLabelWithStyle("Scroll to step through frames, drag to pan, ←/→ to step, space to play, R to reset",
			fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	)

	v.content = container.NewBorder(nil, controls, nil, nil, v.surface)
	v.refresh()
	return v, nil
}

// SetSequence replaces the sequence wholesale and resets the view
func (v *viewPanel) SetSequence(seq frames.Sequence) {
	v.player.Stop()
	v.seq = seq
	v.cache.Reset(seq)
	v.state.SetFrameCount(seq.Len())

	v.position.Min = 0
	v.position.Max = float64(max(seq.Len()-1, 1))
	v.refresh()
}

// Key applies a keyboard command and reports whether name is a viewer
// shortcut at all.
func (v *viewPanel) Key(name fyne.KeyName) bool {
	k := keyFor(name)
	if k == viewer.KeyNone {
		return false
	}
	if v.state.Key(k) {
		v.refresh()
	}
	return true
}

// focusSurface hands keyboard focus back to the zoom surface once a slider
// drag or tap has finished.
func (v *viewPanel) focusSurface(float64) {
	if c := fyne.CurrentApp().Driver().CanvasForObject(v.surface); c != nil {
		c.Focus(v.surface)
	}
}

// Pause stops auto-play, e.g. when the viewer is hidden
func (v *viewPanel) Pause() {
	if v.state.SetAutoPlay(false) {
		v.refresh()
	}
}

// Close releases the auto-play ticker
func (v *viewPanel) Close() {
	v.player.Stop()
}

func (v *viewPanel) currentImage() image.Image {
	img, err := v.cache.Get(v.state.Index())
	if err != nil {
		v.logger.Warn().Err(err).Msg("cannot show frame")
		return nil
	}
	return img
}

// refresh pushes the state into the widgets and keeps the ticker in step
// with the auto-play flag.
func (v *viewPanel) refresh() {
	snap := v.state.Snapshot()
	v.player.Sync(snap.AutoPlaying)

	if snap.Empty() {
		v.position.Disable()
		v.zoom.Disable()
		v.play.Disable()
		v.reset.Disable()
		v.export.Disable()
		v.info.SetText("No frames")
		v.surface.Redraw()
		return
	}

	v.zoom.Enable()
	v.play.Enable()
	v.reset.Enable()
	v.export.Enable()
	if snap.Frames > 1 {
		v.position.Enable()
	} else {
		v.position.Disable()
	}

	v.position.SetValue(float64(snap.Index))
	v.zoom.SetValue(snap.Zoom)

	if snap.AutoPlaying {
		v.play.SetText("Pause")
		v.play.SetIcon(theme.MediaPauseIcon())
	} else {
		v.play.SetText("Play")
		v.play.SetIcon(theme.MediaPlayIcon())
	}

	var at string
	if f, ok := v.seq.At(snap.Index); ok {
		at = util.FormatSeconds(f.Time)
	}
	v.info.SetText(fmt.Sprintf("Frame %d / %d   %s   %.1fx", snap.Index+1, snap.Frames, at, snap.Zoom))
	v.surface.Redraw()
}
