package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"croquis/internal/resource"
	"croquis/internal/scan"
	"croquis/internal/session"
	"croquis/internal/slideshow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	calls  []string
	src    scan.Source
	snap   slideshow.Snapshot
	timing session.Timing
	order  session.OrderMode
	topic  string
	err    error
	events chan slideshow.Event
	done   chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{events: make(chan slideshow.Event, 8), done: make(chan struct{})}
}

func (f *fakeController) record(name string) (slideshow.Snapshot, error) {
	f.calls = append(f.calls, name)
	return f.snap, f.err
}

func (f *fakeController) SelectSource(src scan.Source) (slideshow.Snapshot, error) {
	f.src = src
	return f.record("select")
}
func (f *fakeController) Start(timing session.Timing, order session.OrderMode) (slideshow.Snapshot, error) {
	f.timing, f.order = timing, order
	return f.record("start")
}
func (f *fakeController) TogglePause() (slideshow.Snapshot, error) { return f.record("pause") }
func (f *fakeController) Next() (slideshow.Snapshot, error)        { return f.record("next") }
func (f *fakeController) Stop() (slideshow.Snapshot, error)        { return f.record("stop") }
func (f *fakeController) SetTopic(topic string) (slideshow.Snapshot, error) {
	f.topic = topic
	return f.record("topic")
}
func (f *fakeController) Snapshot() (slideshow.Snapshot, error) { return f.record("snapshot") }
func (f *fakeController) Events() <-chan slideshow.Event      { return f.events }
func (f *fakeController) Done() <-chan struct{}               { return f.done }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to the model and, outside the topic editor, runs the returned command
// once and feeds its message back. Editor commands are cursor blinks.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil && m.editing == promptNone {
		if out := cmd(); out != nil {
			if _, ok := out.(tea.BatchMsg); !ok {
				next, _ = m.Update(out)
				m = next.(Model)
			}
		}
	}
	return m
}

func idleWithImages() slideshow.Snapshot {
	return slideshow.Snapshot{
		State:      session.State{Phase: session.PhaseIdle, Index: -1},
		FolderName: "poses",
		Topic:      "poses",
		SourceLen:  3,
	}
}

func drawing(index, secs int, paused bool) slideshow.Snapshot {
	item := &resource.Item{
		Name:    fmt.Sprintf("img%d.png", index+1),
		Locator: "blob:1234",
		File:    scan.RawFile{Name: fmt.Sprintf("img%d.png", index+1), Path: fmt.Sprintf("/pics/img%d.png", index+1)},
	}
	return slideshow.Snapshot{
		State: session.State{
			Phase:            session.PhaseDraw,
			Index:            index,
			SecondsRemaining: secs,
			Paused:           paused,
			QueueLen:         3,
		},
		Current:    item,
		FolderName: "poses",
		Topic:      "poses",
		SourceLen:  3,
	}
}

func TestClock(t *testing.T) {
	tests := map[int]string{0: "00:00", 5: "00:05", 60: "01:00", 754: "12:34", 3600: "60:00", -3: "00:00"}
	for in, want := range tests {
		assert.Equal(t, want, Clock(in), "Clock(%d)", in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0s", 45: "45s", 60: "1m", 90: "1m30s", 600: "10m", 3600: "60m"}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "FormatDuration(%d)", in)
	}
}

func TestLogUIManager(t *testing.T) {
	lm := NewLogUIManager(2)
	assert.Equal(t, "", lm.Display())

	lm.AddLogMessage("one")
	lm.AddLogMessage("two")
	lm.AddLogMessage("three")
	assert.Len(t, lm.logMessages, 2)
	assert.Equal(t, "[2/2] three", lm.Display())

	lm.ShowPreviousLogMessage()
	assert.Equal(t, "[1/2] two", lm.Display())
	lm.ShowPreviousLogMessage()
	assert.Equal(t, "[1/2] two", lm.Display())
	lm.ShowNextLogMessage()
	lm.ShowNextLogMessage()
	assert.Equal(t, "[2/2] three", lm.Display())
}

func TestKeysDriveController(t *testing.T) {
	ctrl := newFakeController()
	ctrl.snap = idleWithImages()
	m := NewModel(ctrl, nil, session.Timing{DrawSeconds: 30, BreakSeconds: 5}, session.OrderName)
	m = press(t, m, snapshotMsg(ctrl.snap))

	m = press(t, m, runes("r"))
	assert.Equal(t, session.OrderRandom, m.order)

	ctrl.snap = drawing(0, 30, false)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{"start"}, ctrl.calls)
	assert.Equal(t, session.Timing{DrawSeconds: 30, BreakSeconds: 5}, ctrl.timing)
	assert.Equal(t, session.OrderRandom, ctrl.order)

	// order is locked while running
	m = press(t, m, runes("r"))
	assert.Equal(t, session.OrderRandom, m.order)

	m = press(t, m, runes("p"))
	m = press(t, m, runes("n"))
	ctrl.snap = idleWithImages()
	m = press(t, m, runes("s"))
	assert.Equal(t, []string{"start", "pause", "next", "stop"}, ctrl.calls)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEditTopic(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, nil, session.Timing{DrawSeconds: 60}, session.OrderName)
	m = press(t, m, snapshotMsg(idleWithImages()))

	m = press(t, m, runes("t"))
	require.Equal(t, promptTopic, m.editing)
	assert.Equal(t, "poses", m.input.Value())

	// keys are typed into the editor, not treated as commands
	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = press(t, m, runes("s!"))
	assert.Empty(t, ctrl.calls)

	after := idleWithImages()
	after.Topic = "poses!"
	ctrl.snap = after
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, promptNone, m.editing)
	assert.Equal(t, "poses!", ctrl.topic)
	assert.Contains(t, m.View(), "poses!")

	m = press(t, m, runes("t"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, promptNone, m.editing)
	assert.Equal(t, []string{"topic"}, ctrl.calls)
}

func TestEventsUpdateView(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, nil, session.Timing{DrawSeconds: 90, BreakSeconds: 0}, session.OrderName)

	assert.Contains(t, m.View(), "Choose a folder to begin")

	next, cmd := m.Update(eventMsg{event: slideshow.SourceInstalled{FolderName: "poses", Count: 3}})
	m = next.(Model)
	assert.NotNil(t, cmd, "the model keeps listening for events")
	next, _ = m.Update(eventMsg{event: slideshow.StateChanged{Snapshot: idleWithImages()}})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "poses")
	assert.Contains(t, view, "1m30s")
	assert.Contains(t, view, "Loaded 3 image(s) from poses")

	next, _ = m.Update(eventMsg{event: slideshow.StateChanged{Snapshot: drawing(1, 75, true)}})
	m = next.(Model)
	view = m.View()
	assert.Contains(t, view, "01:15")
	assert.Contains(t, view, "2 / 3")
	assert.Contains(t, view, "img2.png")
	assert.Contains(t, view, "Paused")
	assert.Contains(t, view, "/pics/img2.png")

	next, _ = m.Update(eventMsg{event: slideshow.StateChanged{Snapshot: idleWithImages()}})
	m = next.(Model)
	next, _ = m.Update(eventMsg{event: slideshow.Finished{}})
	m = next.(Model)
	assert.Contains(t, m.View(), "Session finished")

	next, _ = m.Update(eventMsg{event: slideshow.NoImages{FolderName: "empty"}})
	m = next.(Model)
	assert.Contains(t, m.View(), "No image files found.")

	next, _ = m.Update(eventMsg{event: slideshow.LoadFailed{Err: errors.New("permission denied")}})
	m = next.(Model)
	assert.Contains(t, m.View(), "permission denied")
}

func TestWaitForEventAndClose(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, nil, session.Timing{DrawSeconds: 1}, session.OrderName)

	ctrl.events <- slideshow.PromptFolder{}
	msg := m.waitForEvent()()
	require.IsType(t, eventMsg{}, msg)
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Contains(t, m.View(), "Choose a folder with images first")

	close(ctrl.done)
	msg = m.waitForEvent()()
	assert.IsType(t, closedMsg{}, msg)
	next, cmd := m.Update(msg)
	assert.True(t, next.(Model).quitting)
	require.NotNil(t, cmd)
	assert.True(t, strings.TrimSpace(next.View()) == "")
}

func TestControllerErrorsAreLogged(t *testing.T) {
	ctrl := newFakeController()
	ctrl.err = slideshow.ErrClosed
	m := NewModel(ctrl, nil, session.Timing{DrawSeconds: 1}, session.OrderName)
	m = press(t, m, runes("n"))
	assert.ErrorIs(t, m.lastErr, slideshow.ErrClosed)
	assert.Contains(t, m.View(), "controller closed")
}

type fakeResolver struct {
	paths [][]string
	src   scan.Source
}

func (r *fakeResolver) resolve(paths []string) (scan.Source, error) {
	r.paths = append(r.paths, paths)
	if paths[0] == "missing" {
		return nil, errors.New("no such file or directory")
	}
	return r.src, nil
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func TestOpenFolderPrompt(t *testing.T) {
	ctrl := newFakeController()
	res := &fakeResolver{src: scan.FileListSource{Files: []scan.RawFile{{Name: "x.png", Path: "/pics/new/x.png"}}}}
	m := NewModel(ctrl, res.resolve, session.Timing{DrawSeconds: 30}, session.OrderName)

	m = press(t, m, runes("o"))
	require.Equal(t, promptFolder, m.editing)
	assert.Contains(t, m.View(), "Folder: ")

	ctrl.snap = slideshow.Snapshot{State: session.State{Index: -1}, Loading: true}
	m = typeText(t, m, "/pics/new")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, promptNone, m.editing)
	assert.Equal(t, [][]string{{"/pics/new"}}, res.paths)
	assert.Equal(t, []string{"select"}, ctrl.calls)
	assert.Equal(t, res.src, ctrl.src)
	assert.Contains(t, m.View(), "Loading images...")

	// a blank path closes the prompt without selecting anything
	m = press(t, m, runes("o"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"select"}, ctrl.calls)
	assert.Len(t, res.paths, 1)
}

func TestOpenFolderWhileRunning(t *testing.T) {
	ctrl := newFakeController()
	res := &fakeResolver{src: scan.FileListSource{}}
	m := NewModel(ctrl, res.resolve, session.Timing{DrawSeconds: 30}, session.OrderName)
	m = press(t, m, snapshotMsg(drawing(1, 20, false)))

	m = press(t, m, runes("o"))
	// command keys are typed into the prompt
	m = typeText(t, m, "pnsq")
	assert.False(t, m.quitting)
	assert.Empty(t, ctrl.calls)

	ctrl.snap = idleWithImages()
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, [][]string{{"pnsq"}}, res.paths)
	assert.Equal(t, []string{"select"}, ctrl.calls)

	next, _ := m.Update(eventMsg{event: slideshow.SourceInstalled{FolderName: "other", Count: 2}})
	m = next.(Model)
	assert.Contains(t, m.View(), "Loaded 2 image(s) from other")
}

func TestOpenFolderErrors(t *testing.T) {
	ctrl := newFakeController()
	res := &fakeResolver{}
	m := NewModel(ctrl, res.resolve, session.Timing{DrawSeconds: 30}, session.OrderName)

	m = press(t, m, runes("o"))
	m = typeText(t, m, "missing")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, m.lastErr)
	assert.Contains(t, m.View(), "no such file or directory")
	assert.Empty(t, ctrl.calls)

	noResolver := NewModel(ctrl, nil, session.Timing{DrawSeconds: 30}, session.OrderName)
	msg := noResolver.selectPaths([]string{"/pics"})()
	assert.IsType(t, errMsg{}, msg)
}

func TestOpenOnStartSelectsPaths(t *testing.T) {
	ctrl := newFakeController()
	res := &fakeResolver{src: scan.FileListSource{}}
	m := NewModel(ctrl, res.resolve, session.Timing{DrawSeconds: 30}, session.OrderName).
		OpenOnStart([]string{"/pics/a", "/pics/b"})
	require.NotNil(t, m.Init())

	msg := m.selectPaths(m.initialPaths)()
	assert.IsType(t, snapshotMsg{}, msg)
	assert.Equal(t, [][]string{{"/pics/a", "/pics/b"}}, res.paths)
	assert.Equal(t, []string{"select"}, ctrl.calls)
}
