package ui

import (
	"errors"
	"fmt"
	"strings"

	"croquis/internal/scan"
	"croquis/internal/session"
	"croquis/internal/slideshow"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of *slideshow.Controller a front end drives.
type Controller interface {
	SelectSource(src scan.Source) (slideshow.Snapshot, error)
	Start(timing session.Timing, order session.OrderMode) (slideshow.Snapshot, error)
	TogglePause() (slideshow.Snapshot, error)
	Next() (slideshow.Snapshot, error)
	Stop() (slideshow.Snapshot, error)
	SetTopic(topic string) (slideshow.Snapshot, error)
	Snapshot() (slideshow.Snapshot, error)
	Events() <-chan slideshow.Event
	Done() <-chan struct{}
}

// Resolver turns user supplied paths into a source. service.ResolveSource fits once its
// options are bound.
type Resolver func(paths []string) (scan.Source, error)

// overlay is the message shown in place of the topic card while idle.
type overlay int

const (
	overlayNone overlay = iota
	overlayFinished
	overlayNoImages
	overlayPrompt
	overlayLoadFailed
)

// prompt is what the text input is currently editing.
type prompt int

const (
	promptNone prompt = iota
	promptTopic
	promptFolder
)

type eventMsg struct{ event slideshow.Event }

type snapshotMsg slideshow.Snapshot

type errMsg struct{ err error }

type closedMsg struct{}

// LogMsg adds a line to the status bar log. Send it through tea.Program.Send.
type LogMsg string

// Model is the bubbletea model of the session screen.
type Model struct {
	ctrl    Controller
	resolve Resolver
	keys    KeyMap
	help    help.Model
	styles  Styles
	logs    *LogUIManager

	input   textinput.Model
	editing prompt

	initialPaths []string

	timing  session.Timing
	order   session.OrderMode
	snap    slideshow.Snapshot
	overlay overlay
	lastErr error

	width    int
	quitting bool
}

// NewModel creates the session screen. timing and order are used for every start.
func NewModel(ctrl Controller, resolve Resolver, timing session.Timing, order session.OrderMode) Model {
	return Model{
		ctrl:    ctrl,
		resolve: resolve,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  DefaultStyles(),
		logs:    NewLogUIManager(DefaultMaxLogMessages),
		input:   textinput.New(),
		timing:  timing,
		order:   order,
	}
}

// OpenOnStart makes the model select paths as soon as the program runs.
func (m Model) OpenOnStart(paths []string) Model {
	m.initialPaths = append([]string(nil), paths...)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent(), m.call(m.ctrl.Snapshot)}
	if len(m.initialPaths) > 0 {
		cmds = append(cmds, m.selectPaths(m.initialPaths))
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForEvent() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		select {
		case ev := <-ctrl.Events():
			return eventMsg{event: ev}
		case <-ctrl.Done():
			return closedMsg{}
		}
	}
}

// call runs a controller command off the update loop.
func (m Model) call(f func() (slideshow.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := f()
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotMsg(snap)
	}
}

// selectPaths resolves paths and hands the source to the controller, off the update loop.
func (m Model) selectPaths(paths []string) tea.Cmd {
	ctrl, resolve := m.ctrl, m.resolve
	return func() tea.Msg {
		if resolve == nil {
			return errMsg{err: errors.New("opening folders is not available")}
		}
		src, err := resolve(paths)
		if err != nil {
			return errMsg{err: fmt.Errorf("opening %s: %w", strings.Join(paths, ", "), err)}
		}
		snap, err := ctrl.SelectSource(src)
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotMsg(snap)
	}
}

// addLogMessage adds a message to the status bar log.
func (m *Model) addLogMessage(message string) {
	m.logs.AddLogMessage(message)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.handleEvent(msg.event)
		return m, m.waitForEvent()

	case snapshotMsg:
		m.setSnapshot(slideshow.Snapshot(msg))
		return m, nil

	case errMsg:
		m.lastErr = msg.err
		m.addLogMessage(fmt.Sprintf("Error: %v", msg.err))
		return m, nil

	case LogMsg:
		m.addLogMessage(string(msg))
		return m, nil

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.editing != promptNone {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setSnapshot(snap slideshow.Snapshot) {
	m.snap = snap
	if snap.State.Phase.Running() || snap.Loading {
		m.overlay = overlayNone
	}
}

func (m *Model) handleEvent(ev slideshow.Event) {
	switch ev := ev.(type) {
	case slideshow.StateChanged:
		m.setSnapshot(ev.Snapshot)
	case slideshow.SourceInstalled:
		m.overlay = overlayNone
		m.lastErr = nil
		m.addLogMessage(fmt.Sprintf("Loaded %d image(s) from %s", ev.Count, ev.FolderName))
	case slideshow.NoImages:
		m.overlay = overlayNoImages
		m.addLogMessage(fmt.Sprintf("No image files found in %s", ev.FolderName))
	case slideshow.PromptFolder:
		m.overlay = overlayPrompt
	case slideshow.Finished:
		m.overlay = overlayFinished
		m.addLogMessage("Session finished")
	case slideshow.LoadFailed:
		m.overlay = overlayLoadFailed
		m.lastErr = ev.Err
		m.addLogMessage(fmt.Sprintf("Loading failed: %v", ev.Err))
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idle := !m.snap.State.Phase.Running()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Open):
		return m, m.openPrompt(promptFolder, "Folder: ", "path to a folder of images", "")
	case key.Matches(msg, m.keys.Start):
		if idle {
			timing, order := m.timing, m.order
			return m, m.call(func() (slideshow.Snapshot, error) { return m.ctrl.Start(timing, order) })
		}
	case key.Matches(msg, m.keys.Pause):
		return m, m.call(m.ctrl.TogglePause)
	case key.Matches(msg, m.keys.Next):
		return m, m.call(m.ctrl.Next)
	case key.Matches(msg, m.keys.Stop):
		return m, m.call(m.ctrl.Stop)
	case key.Matches(msg, m.keys.Order):
		if idle {
			if m.order == session.OrderName {
				m.order = session.OrderRandom
			} else {
				m.order = session.OrderName
			}
			m.addLogMessage(fmt.Sprintf("Order: %s", m.order))
		}
	case key.Matches(msg, m.keys.Topic):
		if idle && m.snap.SourceLen > 0 {
			return m, m.openPrompt(promptTopic, "Topic: ", "Topic", m.snap.Topic)
		}
	case key.Matches(msg, m.keys.LogUp):
		m.logs.ShowPreviousLogMessage()
	case key.Matches(msg, m.keys.LogDown):
		m.logs.ShowNextLogMessage()
	}
	return m, nil
}

func (m *Model) openPrompt(p prompt, label, placeholder, value string) tea.Cmd {
	m.editing = p
	m.input.Prompt = label
	m.input.Placeholder = placeholder
	m.input.CharLimit = 0
	if p == promptTopic {
		m.input.CharLimit = slideshow.MaxTopicLength
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		target := m.editing
		value := m.input.Value()
		m.editing = promptNone
		m.input.Blur()
		if target == promptFolder {
			p := strings.TrimSpace(value)
			if p == "" {
				return m, nil
			}
			return m, m.selectPaths([]string{p})
		}
		return m, m.call(func() (slideshow.Snapshot, error) { return m.ctrl.SetTopic(value) })
	case key.Matches(msg, m.keys.Cancel):
		m.editing = promptNone
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
