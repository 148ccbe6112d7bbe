package gui

import (
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

type shortcut struct {
	keys        string
	description string
}

var shortcuts = []shortcut{
	{"Ctrl+Q or Q", "Quit Application"},
	{"Enter", "Start Session"},
	{"P or Space", "Pause / Resume"},
	{"N or Arrow Right", "Next Image"},
	{"S", "Stop Session"},
	{"R", "Toggle Random Order"},
	{"O", "Open Folder"},
	{"Esc", "Close Dialog or Stop Session"},
}

func modifierKey() fyne.KeyModifier {
	if runtime.GOOS == "darwin" {
		return fyne.KeyModifierSuper
	}
	return fyne.KeyModifierControl
}

func (a *App) buildKeyboardShortcuts() {
	a.UI.mainModKey = modifierKey()

	// ctrl+q to quit application
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: a.UI.mainModKey,
	}, func(_ fyne.Shortcut) { a.app.Quit() })

	a.UI.MainWin.Canvas().SetOnTypedKey(a.typedKey)
}

func (a *App) typedKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		a.start()
	case fyne.KeyP, fyne.KeySpace:
		a.togglePlay()
	case fyne.KeyN, fyne.KeyRight:
		a.nextImage()
	case fyne.KeyS:
		a.stopSession()
	case fyne.KeyR:
		if !a.UI.randomCheck.Disabled() {
			a.UI.randomCheck.SetChecked(!a.UI.randomCheck.Checked)
		}
	case fyne.KeyO:
		a.showFolderDialog()
	case fyne.KeyQ:
		a.app.Quit()
	// close dialogs with esc key, otherwise end the session
	case fyne.KeyEscape:
		if overlays := a.UI.MainWin.Canvas().Overlays(); len(overlays.List()) > 0 {
			overlays.Top().Hide()
			return
		}
		if a.snap.State.Phase.Running() {
			a.stopSession()
		}
	}
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(shortcuts) + 1, 2 }, // +1 for header row
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			isHeader := id.Row == 0
			switch {
			case isHeader && id.Col == 0:
				label.SetText("Description")
			case isHeader:
				label.SetText("Shortcut")
			case id.Col == 0:
				label.SetText(shortcuts[id.Row-1].description)
			default:
				label.SetText(shortcuts[id.Row-1].keys)
			}
			label.TextStyle.Bold = isHeader
		},
	)
	table.SetColumnWidth(0, 250)
	table.SetColumnWidth(1, 250)
	win.SetContent(table)
	win.Resize(fyne.NewSize(500, 360))
	win.Show()
}
