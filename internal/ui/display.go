package ui

import (
	"fmt"
	"strings"

	"croquis/internal/session"
	"croquis/internal/slideshow"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("croquis"))
	b.WriteString("\n")

	switch {
	case m.snap.State.Phase.Running():
		b.WriteString(m.sessionView())
	case m.snap.Loading:
		b.WriteString(m.styles.Message.Render("Loading images..."))
	case m.overlay != overlayNone:
		b.WriteString(m.overlayView())
	case m.snap.SourceLen == 0:
		b.WriteString(m.styles.Message.Render("Choose a folder to begin (o)."))
	default:
		b.WriteString(m.topicView())
	}

	if m.editing == promptFolder {
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(m.statusText()))
	if line := m.logs.Display(); line != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Dim.Render(line))
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) sessionView() string {
	st := m.snap.State
	var b strings.Builder
	clock := Clock(st.SecondsRemaining)

	if st.Phase == session.PhaseBreak {
		b.WriteString(m.styles.Break.Render("Break " + clock))
		b.WriteString("\n")
		b.WriteString(m.styles.Dim.Render(fmt.Sprintf("Up next: %d / %d", st.Index+2, st.QueueLen)))
	} else {
		b.WriteString(m.styles.Clock.Render(clock))
		b.WriteString(fmt.Sprintf("  %d / %d", st.Index+1, st.QueueLen))
		if cur := m.snap.Current; cur != nil {
			b.WriteString("\n")
			b.WriteString(m.styles.Label.Render(cur.Name))
			b.WriteString("\n")
			b.WriteString(m.styles.Dim.Render(string(cur.Locator)))
		}
	}
	if st.Paused {
		b.WriteString("\n")
		b.WriteString(m.styles.Paused.Render("Paused"))
	}
	return b.String()
}

func (m Model) overlayView() string {
	switch m.overlay {
	case overlayFinished:
		return m.styles.Message.Render("Session finished. Nice work!")
	case overlayNoImages:
		return m.styles.Message.Render("No image files found.")
	case overlayPrompt:
		return m.styles.Message.Render("Choose a folder with images first (o).")
	case overlayLoadFailed:
		msg := "Could not load the folder."
		if m.lastErr != nil {
			msg += "\n" + m.styles.Error.Render(m.lastErr.Error())
		}
		return m.styles.Message.Render(msg)
	}
	return ""
}

func (m Model) topicView() string {
	var b strings.Builder
	if m.editing == promptTopic {
		b.WriteString(m.input.View())
	} else {
		topic := m.snap.Topic
		if topic == "" {
			topic = m.snap.FolderName
		}
		b.WriteString(m.styles.Topic.Render(topic))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s",
		m.styles.Label.Render("Draw"), FormatDuration(m.timing.DrawSeconds),
		m.styles.Label.Render("Break"), FormatDuration(m.timing.BreakSeconds),
		m.styles.Label.Render("Order"), m.order))
	return b.String()
}

func (m Model) statusText() string {
	return StatusText(m.snap)
}

// StatusText renders the status bar line: current item, position and play state.
func StatusText(snap slideshow.Snapshot) string {
	st := snap.State
	if !st.Phase.Running() {
		if snap.SourceLen == 0 {
			return "Ready"
		}
		return fmt.Sprintf("%s  |  %d image(s)", snap.FolderName, snap.SourceLen)
	}
	text := fmt.Sprintf("Image %d / %d", st.Index+1, st.QueueLen)
	if cur := snap.Current; cur != nil {
		text = fmt.Sprintf("%s  |  %s", cur.File.Path, text)
	}
	if st.Paused {
		text += " | Paused"
	} else {
		text += " | Playing"
	}
	return text
}
