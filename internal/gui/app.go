// Package gui is the desktop front end of a drawing session, built on fyne.
package gui

import (
	"fmt"
	"io"
	"log"

	"croquis/internal/resource"
	"croquis/internal/session"
	"croquis/internal/slideshow"
	"croquis/internal/ui"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// Opener hands out the bytes behind a live locator. *resource.Registry implements it.
type Opener interface {
	Open(loc resource.Locator) (io.ReadCloser, error)
}

// UI holds the widgets that are updated after the window is built.
type UI struct {
	MainWin    fyne.Window
	mainModKey fyne.KeyModifier

	image           *canvas.Image
	clockText       *canvas.Text
	nameLabel       *widget.Label
	messageLabel    *widget.Label
	statusPathLabel *widget.Label
	logLabel        *widget.Label
	topicEntry      *widget.Entry
	drawSlider      *widget.Slider
	drawLabel       *widget.Label
	breakSlider     *widget.Slider
	breakLabel      *widget.Label
	randomCheck     *widget.Check

	toolBar     *widget.Toolbar
	startAction *widget.ToolbarAction
	pauseAction *widget.ToolbarAction
}

// App is the desktop session window and the state it renders.
type App struct {
	app fyne.App
	UI  UI

	ctrl    ui.Controller
	opener  Opener
	resolve ui.Resolver

	timing  session.Timing
	order   session.OrderMode
	snap    slideshow.Snapshot
	shown   resource.Locator
	message string

	logUIManager *ui.LogUIManager

	// goFunc runs controller round trips off the fyne thread.
	goFunc func(func())
}

// New builds the session window on a. Nothing is shown until ShowAndRun.
func New(a fyne.App, ctrl ui.Controller, opener Opener, resolve ui.Resolver, timing session.Timing, order session.OrderMode) *App {
	g := &App{
		app:          a,
		ctrl:         ctrl,
		opener:       opener,
		resolve:      resolve,
		timing:       timing,
		order:        order,
		logUIManager: ui.NewLogUIManager(ui.DefaultMaxLogMessages),
		goFunc:       func(f func()) { go f() },
	}
	g.UI.MainWin = a.NewWindow("Croquis")
	g.UI.MainWin.SetContent(g.buildMainUI())
	g.UI.MainWin.SetOnDropped(g.onDropped)
	g.buildKeyboardShortcuts()
	g.render()
	return g
}

// Listen forwards controller events to the window until the controller stops, then quits.
func (a *App) Listen() {
	go func() {
		for {
			select {
			case ev := <-a.ctrl.Events():
				fyne.Do(func() { a.handleEvent(ev) })
			case <-a.ctrl.Done():
				fyne.Do(a.app.Quit)
				return
			}
		}
	}()
}

// ShowAndRun shows the window and blocks until the application quits.
func (a *App) ShowAndRun() {
	a.UI.MainWin.Resize(fyne.NewSize(1024, 768))
	a.UI.MainWin.CenterOnScreen()
	a.UI.MainWin.ShowAndRun()
}

// Log adds a message to the log line from any goroutine.
func (a *App) Log(message string) {
	fyne.Do(func() { a.addLogMessage(message) })
}

// addLogMessage adds a message to the UI log display.
func (a *App) addLogMessage(message string) {
	if a.logUIManager == nil {
		log.Printf("LogUIManager not ready, console log: %s", message)
		return
	}
	a.logUIManager.AddLogMessage(message)
	if a.UI.logLabel != nil {
		a.UI.logLabel.SetText(a.logUIManager.Display())
	}
}

// call runs a controller command and renders the snapshot it returns.
func (a *App) call(f func() (slideshow.Snapshot, error)) {
	a.goFunc(func() {
		snap, err := f()
		fyne.Do(func() {
			if err != nil {
				a.addLogMessage(fmt.Sprintf("Error: %v", err))
				return
			}
			a.setSnapshot(snap)
		})
	})
}

// SelectPaths resolves paths and replaces the source set with them.
func (a *App) SelectPaths(paths []string) {
	if len(paths) == 0 {
		return
	}
	a.goFunc(func() {
		src, err := a.resolve(paths)
		if err != nil {
			fyne.Do(func() { a.addLogMessage(fmt.Sprintf("Error opening %v: %v", paths, err)) })
			return
		}
		snap, err := a.ctrl.SelectSource(src)
		fyne.Do(func() {
			if err != nil {
				a.addLogMessage(fmt.Sprintf("Error: %v", err))
				return
			}
			a.setSnapshot(snap)
		})
	})
}

func (a *App) onDropped(_ fyne.Position, uris []fyne.URI) {
	paths := make([]string, 0, len(uris))
	for _, u := range uris {
		if u != nil && u.Scheme() == "file" {
			paths = append(paths, u.Path())
		}
	}
	a.SelectPaths(paths)
}

func (a *App) handleEvent(ev slideshow.Event) {
	switch ev := ev.(type) {
	case slideshow.StateChanged:
		a.setSnapshot(ev.Snapshot)
		return
	case slideshow.SourceInstalled:
		a.message = ""
		a.addLogMessage(fmt.Sprintf("Loaded %d image(s) from %s", ev.Count, ev.FolderName))
	case slideshow.NoImages:
		a.message = "No image files found."
		a.addLogMessage(fmt.Sprintf("No image files found in %s", ev.FolderName))
	case slideshow.PromptFolder:
		a.message = "Choose a folder with images first."
	case slideshow.Finished:
		a.message = "Session finished. Nice work!"
		a.addLogMessage("Session finished")
	case slideshow.LoadFailed:
		a.message = fmt.Sprintf("Could not load the folder.\n%v", ev.Err)
		a.addLogMessage(fmt.Sprintf("Loading failed: %v", ev.Err))
	}
	a.render()
}

func (a *App) setSnapshot(snap slideshow.Snapshot) {
	a.snap = snap
	if snap.State.Phase.Running() || snap.Loading {
		a.message = ""
	}
	a.render()
}

func (a *App) start() {
	if a.snap.State.Phase.Running() {
		return
	}
	timing, order := a.timing, a.order
	a.call(func() (slideshow.Snapshot, error) { return a.ctrl.Start(timing, order) })
}

func (a *App) togglePlay()  { a.call(a.ctrl.TogglePause) }
func (a *App) nextImage()   { a.call(a.ctrl.Next) }
func (a *App) stopSession() { a.call(a.ctrl.Stop) }

func (a *App) setTopic(topic string) {
	a.call(func() (slideshow.Snapshot, error) { return a.ctrl.SetTopic(topic) })
}

func (a *App) toggleRandom(random bool) {
	if random {
		a.order = session.OrderRandom
	} else {
		a.order = session.OrderName
	}
}
