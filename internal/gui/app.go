// Package gui is the desktop front end: an extraction screen and a zoom
// viewer sharing one session.
package gui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/infinizoom/internal/config"
	"github.com/kikiluvv/infinizoom/internal/export"
	"github.com/kikiluvv/infinizoom/internal/frames"
	"github.com/kikiluvv/infinizoom/internal/session"
	"github.com/kikiluvv/infinizoom/pkg/util"
)

// Options wires the GUI to the rest of the tool
type Options struct {
	Config    *config.Config
	Opener    frames.Opener
	Exporter  *export.Writer
	Video     string // extracted on launch when set
	FramesDir string // exported sequence loaded on launch when set
}

// App owns the window and routes session changes onto the UI goroutine
type App struct {
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	opts      Options
	extractor *frames.Extractor
	session   *session.Session

	window      fyne.Window
	tabs        *container.AppTabs
	extractTab  *container.TabItem
	viewTab     *container.TabItem
	view        *viewPanel
	progress    *widget.ProgressBar
	status      *widget.Label
	openButton  *widget.Button
	source      string
	shownTicket session.Ticket
}

// Run builds the window and blocks until it is closed
func Run(ctx context.Context, logger zerolog.Logger, opts Options) error {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Opener == nil {
		return errors.New("no video opener configured")
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewWriter(logger, opts.Config.Export.Workers)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := &App{
		logger:    logger.With().Str("component", "gui").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		opts:      opts,
		extractor: frames.NewExtractor(logger, opts.Config.ExtractOptions()),
	}
	a.session = session.New(logger, func(snap session.Snapshot) {
		fyne.Do(func() { a.apply(snap) })
	})

	fyneApp := app.NewWithID("io.github.kikiluvv.infinizoom")
	a.window = fyneApp.NewWindow("infinizoom")
	a.window.Resize(fyne.NewSize(opts.Config.Viewer.WindowWidth, opts.Config.Viewer.WindowHeight))

	if err := a.build(); err != nil {
		return err
	}

	// only reached while nothing has focus; focused widgets forward keys
	// through viewPanel.Key themselves
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if a.tabs.Selected() == a.viewTab {
			a.view.Key(ev.Name)
		}
	})
	a.window.SetOnClosed(func() {
		a.view.Close()
		a.cancel()
	})

	switch {
	case opts.Video != "":
		a.startExtraction(opts.Video)
	case opts.FramesDir != "":
		a.loadSequence(opts.FramesDir)
	}

	a.window.ShowAndRun()
	return nil
}

func (a *App) build() error {
	n := a.extractor.Options().FrameCount
	maxDim := a.extractor.Options().MaxDimension

	intro := widget.NewLabel(fmt.Sprintf(
		"Pick a video and %d evenly spaced frames will be captured (longest edge up to %dpx).\n"+
			"When extraction finishes the zoom viewer opens automatically.", n, maxDim))
	intro.Wrapping = fyne.TextWrapWord

	a.progress = widget.NewProgressBar()
	a.progress.Max = 100
	a.status = widget.NewLabel("No video loaded")

	a.openButton = widget.NewButtonWithIcon("Open video…", theme.FolderOpenIcon(), a.pickVideo)
	loadButton := widget.NewButtonWithIcon("Open frames folder…", theme.FolderIcon(), a.pickFramesDir)

	a.extractTab = container.NewTabItem("Extract", container.NewVBox(
		intro,
		container.NewHBox(a.openButton, loadButton),
		a.progress,
		a.status,
	))

	view, err := newViewPanel(a.logger, a.opts.Config.Viewer.AutoPlayInterval, a.pickExportDir)
	if err != nil {
		return err
	}
	a.view = view
	a.viewTab = container.NewTabItem("View", a.view.content)

	a.tabs = container.NewAppTabs(a.extractTab, a.viewTab)
	a.tabs.OnSelected = func(item *container.TabItem) {
		if item == a.viewTab {
			if a.session.Frames().Len() == 0 {
				a.tabs.Select(a.extractTab)
				return
			}
			a.session.SetView(session.ViewViewer)
			return
		}
		a.view.Pause()
		a.session.SetView(session.ViewExtract)
	}

	a.window.SetContent(a.tabs)
	return nil
}

func (a *App) pickVideo() {
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if r == nil {
			return
		}
		defer r.Close()

		uri := r.URI()
		if err := frames.ValidateMediaType(mediaTypeOf(uri)); err != nil {
			dialog.ShowError(fmt.Errorf("%s is not a video file", uri.Name()), a.window)
			return
		}
		a.startExtraction(uri.Path())
	}, a.window)
	fd.SetFilter(storage.NewMimeTypeFileFilter([]string{"video/*"}))
	fd.Show()
}

func (a *App) pickFramesDir() {
	dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if dir == nil {
			return
		}
		a.loadSequence(dir.Path())
	}, a.window)
}

func (a *App) pickExportDir() {
	seq := a.session.Frames()
	if seq.Len() == 0 {
		return
	}
	dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if dir == nil {
			return
		}
		go func() {
			_, err := a.opts.Exporter.WriteSequence(a.ctx, dir.Path(), a.source, seq)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, a.window)
					return
				}
				dialog.ShowInformation("Export complete",
					fmt.Sprintf("Wrote %d frames to %s", seq.Len(), dir.Path()), a.window)
			})
		}()
	}, a.window)
}

func (a *App) startExtraction(path string) {
	a.source = path
	a.status.SetText("Extracting " + filepath.Base(path) + "…")

	go func() {
		_, err := a.session.Run(a.ctx, a.extractor, a.opts.Opener, path)
		if err == nil || errors.Is(err, session.ErrSuperseded) || errors.Is(err, context.Canceled) {
			return
		}
		fyne.Do(func() { dialog.ShowError(err, a.window) })
	}()
}

func (a *App) loadSequence(dir string) {
	a.status.SetText("Loading frames from " + dir + "…")

	go func() {
		seq, manifest, err := a.opts.Exporter.ReadSequence(a.ctx, dir)
		fyne.Do(func() {
			if err != nil {
				a.status.SetText("Could not load " + dir)
				dialog.ShowError(err, a.window)
				return
			}
			a.source = manifest.Source
			a.session.Replace(seq)
		})
	}()
}

// apply mirrors a session snapshot into the widgets. A new completed ticket
// hands its sequence to the viewer.
func (a *App) apply(snap session.Snapshot) {
	a.progress.SetValue(snap.Progress)

	switch {
	case snap.Running:
		a.status.SetText(fmt.Sprintf("Extracting %s… %.0f%%", filepath.Base(a.source), snap.Progress))
	case snap.Err != nil:
		a.status.SetText("Extraction failed: " + snap.Err.Error())
	case snap.Frames > 0:
		a.status.SetText(fmt.Sprintf("%d frames ready", snap.Frames))
	}

	if snap.View == session.ViewViewer && snap.Ticket != a.shownTicket {
		a.shownTicket = snap.Ticket
		a.view.SetSequence(a.session.Frames())
	}

	switch snap.View {
	case session.ViewViewer:
		if a.tabs.Selected() != a.viewTab {
			a.tabs.Select(a.viewTab)
		}
	case session.ViewExtract:
		if a.tabs.Selected() != a.extractTab {
			a.tabs.Select(a.extractTab)
		}
	}
}

// mediaTypeOf prefers the type fyne reports and falls back to the file
// extension, since desktop platforms disagree on video MIME tables.
func mediaTypeOf(uri fyne.URI) string {
	if err := frames.ValidateMediaType(uri.MimeType()); err == nil {
		return uri.MimeType()
	}
	return util.MediaType(uri.Path())
}
