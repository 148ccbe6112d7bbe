package gui

import (
	"fmt"
	"image/color"
	_ "image/gif" // decoders for the formats the scanner accepts
	"log"

	"croquis/internal/config"
	"croquis/internal/resource"
	"croquis/internal/session"
	"croquis/internal/ui"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const clockTextSize = 64

func (a *App) buildToolbar() *widget.Toolbar {
	a.UI.startAction = widget.NewToolbarAction(theme.MediaPlayIcon(), a.start)
	a.UI.pauseAction = widget.NewToolbarAction(theme.MediaPauseIcon(), a.togglePlay)
	a.UI.toolBar = widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.showFolderDialog),
		widget.NewToolbarSeparator(),
		a.UI.startAction,
		a.UI.pauseAction,
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), a.nextImage),
		widget.NewToolbarAction(theme.MediaStopIcon(), a.stopSession),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), a.showShortcuts),
	)
	return a.UI.toolBar
}

func (a *App) buildSettings() fyne.CanvasObject {
	a.UI.topicEntry = widget.NewEntry()
	a.UI.topicEntry.SetPlaceHolder("Topic")
	a.UI.topicEntry.OnSubmitted = a.setTopic

	a.UI.drawLabel = widget.NewLabel("Draw " + ui.FormatDuration(a.timing.DrawSeconds))
	a.UI.drawSlider = widget.NewSlider(1, config.MaxDrawSeconds)
	a.UI.drawSlider.Value = float64(a.timing.DrawSeconds)
	a.UI.drawSlider.OnChanged = func(v float64) {
		a.timing.DrawSeconds = int(v)
		a.UI.drawLabel.SetText("Draw " + ui.FormatDuration(a.timing.DrawSeconds))
	}

	a.UI.breakLabel = widget.NewLabel("Break " + ui.FormatDuration(a.timing.BreakSeconds))
	a.UI.breakSlider = widget.NewSlider(0, config.MaxBreakSeconds)
	a.UI.breakSlider.Value = float64(a.timing.BreakSeconds)
	a.UI.breakSlider.OnChanged = func(v float64) {
		a.timing.BreakSeconds = int(v)
		a.UI.breakLabel.SetText("Break " + ui.FormatDuration(a.timing.BreakSeconds))
	}

	a.UI.randomCheck = widget.NewCheck("Random order", a.toggleRandom)
	a.UI.randomCheck.Checked = a.order == session.OrderRandom

	return container.NewVBox(
		a.UI.topicEntry,
		container.NewBorder(nil, nil, a.UI.drawLabel, nil, a.UI.drawSlider),
		container.NewBorder(nil, nil, a.UI.breakLabel, nil, a.UI.breakSlider),
		a.UI.randomCheck,
	)
}

func (a *App) buildStatusBar() *fyne.Container {
	a.UI.statusPathLabel = widget.NewLabel("")
	a.UI.logLabel = widget.NewLabel("")
	a.UI.logLabel.Truncation = fyne.TextTruncateEllipsis
	return container.NewVBox(
		widget.NewSeparator(),
		container.NewHBox(
			a.UI.statusPathLabel,
			layout.NewSpacer(),
		),
		a.UI.logLabel,
	)
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.image = &canvas.Image{}
	a.UI.image.FillMode = canvas.ImageFillContain

	a.UI.clockText = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	a.UI.clockText.TextSize = clockTextSize
	a.UI.clockText.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	a.UI.clockText.Alignment = fyne.TextAlignCenter

	a.UI.nameLabel = widget.NewLabel("")
	a.UI.nameLabel.Alignment = fyne.TextAlignCenter
	a.UI.messageLabel = widget.NewLabel("")
	a.UI.messageLabel.Alignment = fyne.TextAlignCenter
	a.UI.messageLabel.Wrapping = fyne.TextWrapWord

	top := container.NewVBox(a.buildToolbar(), a.buildSettings())
	bottom := container.NewVBox(a.UI.clockText, a.UI.nameLabel, a.buildStatusBar())
	center := container.NewStack(a.UI.image, container.NewCenter(a.UI.messageLabel))

	return container.NewBorder(
		top,    // Top
		bottom, // Bottom
		nil,
		nil,
		center,
	)
}

// render brings every widget in line with the latest snapshot.
func (a *App) render() {
	st := a.snap.State
	running := st.Phase.Running()

	switch {
	case running && st.Phase == session.PhaseBreak:
		a.UI.clockText.Text = "Break " + ui.Clock(st.SecondsRemaining)
		a.UI.clockText.Color = theme.Color(theme.ColorNamePrimary)
		a.UI.nameLabel.SetText(fmt.Sprintf("Up next: %d / %d", st.Index+2, st.QueueLen))
	case running:
		a.UI.clockText.Text = ui.Clock(st.SecondsRemaining)
		a.UI.clockText.Color = theme.Color(theme.ColorNameForeground)
		name := ""
		if cur := a.snap.Current; cur != nil {
			name = cur.Name
		}
		a.UI.nameLabel.SetText(fmt.Sprintf("%s  %d / %d", name, st.Index+1, st.QueueLen))
	default:
		a.UI.clockText.Text = ""
		a.UI.nameLabel.SetText("")
	}
	if st.Paused {
		a.UI.clockText.Color = color.Gray{Y: 0x80}
	}
	a.UI.clockText.Refresh()

	a.UI.messageLabel.SetText(a.idleMessage())
	a.UI.statusPathLabel.SetText(ui.StatusText(a.snap))

	title := "Croquis"
	if a.snap.Topic != "" {
		title = fmt.Sprintf("Croquis - %s", a.snap.Topic)
	}
	a.UI.MainWin.SetTitle(title)
	if a.UI.topicEntry.Text != a.snap.Topic && a.UI.MainWin.Canvas().Focused() != a.UI.topicEntry {
		a.UI.topicEntry.SetText(a.snap.Topic)
	}

	a.setEnabled(!running)
	if st.Paused {
		a.UI.pauseAction.SetIcon(theme.MediaPlayIcon())
	} else {
		a.UI.pauseAction.SetIcon(theme.MediaPauseIcon())
	}
	a.UI.toolBar.Refresh()

	a.showCurrent()
}

func (a *App) idleMessage() string {
	switch {
	case a.snap.State.Phase.Running():
		return ""
	case a.snap.Loading:
		return "Loading images..."
	case a.message != "":
		return a.message
	case a.snap.SourceLen == 0:
		return "Choose a folder to begin, or drop one here."
	}
	return fmt.Sprintf("%d image(s) from %s. Press Enter to start.", a.snap.SourceLen, a.snap.FolderName)
}

// setEnabled locks the session settings while a session runs.
func (a *App) setEnabled(idle bool) {
	for _, w := range []fyne.Disableable{a.UI.topicEntry, a.UI.drawSlider, a.UI.breakSlider, a.UI.randomCheck} {
		if idle {
			w.Enable()
		} else {
			w.Disable()
		}
	}
	if idle {
		a.UI.startAction.Enable()
	} else {
		a.UI.startAction.Disable()
	}
}

// showCurrent loads the current item through its locator when it changed, and clears the
// picture when nothing is drawn.
func (a *App) showCurrent() {
	cur := a.snap.Current
	if cur == nil || a.snap.State.Phase != session.PhaseDraw {
		if a.shown != "" {
			a.shown = ""
			a.UI.image.Resource = nil
			a.UI.image.Image = nil
			a.UI.image.Refresh()
		}
		return
	}
	if cur.Locator == a.shown {
		return
	}
	a.shown = cur.Locator
	item := *cur

	a.goFunc(func() {
		img, err := a.loadImage(item)
		fyne.Do(func() {
			if a.shown != item.Locator {
				return // superseded while loading
			}
			if err != nil {
				a.handleImageDisplayError(item, err)
				return
			}
			a.UI.image.Image = nil
			a.UI.image.Resource = img.Resource
			a.UI.image.Refresh()
		})
	})
}

func (a *App) loadImage(item resource.Item) (*canvas.Image, error) {
	rc, err := a.opener.Open(item.Locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img := canvas.NewImageFromReader(rc, item.Name)
	if img == nil || img.Resource == nil {
		return nil, fmt.Errorf("unable to read image %s", item.Name)
	}
	return img, nil
}

// handleImageDisplayError clears the picture when an item fails to load.
func (a *App) handleImageDisplayError(item resource.Item, err error) {
	a.UI.image.Resource = nil
	a.UI.image.Image = nil
	a.UI.image.Refresh()
	a.addLogMessage(fmt.Sprintf("Error loading %s: %v", item.Name, err))
}

func (a *App) showFolderDialog() {
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			log.Printf("Folder dialog failed: %v", err)
			a.addLogMessage(fmt.Sprintf("Error: %v", err))
			return
		}
		if uri == nil {
			return
		}
		a.SelectPaths([]string{uri.Path()})
	}, a.UI.MainWin)
	d.Show()
}
