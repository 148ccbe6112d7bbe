// internal/ui/logmanager.go
package ui

import "fmt"

const DefaultMaxLogMessages = 100

// LogUIManager keeps the most recent log lines and a cursor for paging through them in
// the status bar. It is not safe for concurrent use; each front end owns one.
type LogUIManager struct {
	logMessages     []string
	currentLogIndex int
	maxLogMessages  int
}

func NewLogUIManager(maxMessages int) *LogUIManager {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	return &LogUIManager{
		logMessages:     make([]string, 0, maxMessages),
		currentLogIndex: -1,
		maxLogMessages:  maxMessages,
	}
}

// AddLogMessage appends message, drops the oldest past the limit and jumps to the newest.
func (lm *LogUIManager) AddLogMessage(message string) {
	lm.logMessages = append(lm.logMessages, message)
	if len(lm.logMessages) > lm.maxLogMessages {
		lm.logMessages = lm.logMessages[len(lm.logMessages)-lm.maxLogMessages:]
	}
	lm.currentLogIndex = len(lm.logMessages) - 1
}

// Display renders the message under the cursor as "[i/n] message".
func (lm *LogUIManager) Display() string {
	if len(lm.logMessages) == 0 {
		return ""
	}
	if lm.currentLogIndex < 0 {
		lm.currentLogIndex = 0
	} else if lm.currentLogIndex >= len(lm.logMessages) {
		lm.currentLogIndex = len(lm.logMessages) - 1
	}
	return fmt.Sprintf("[%d/%d] %s", lm.currentLogIndex+1, len(lm.logMessages), lm.logMessages[lm.currentLogIndex])
}

func (lm *LogUIManager) ShowPreviousLogMessage() {
	if len(lm.logMessages) == 0 || lm.currentLogIndex <= 0 {
		return
	}
	lm.currentLogIndex--
}

func (lm *LogUIManager) ShowNextLogMessage() {
	if len(lm.logMessages) == 0 || lm.currentLogIndex >= len(lm.logMessages)-1 {
		return
	}
	lm.currentLogIndex++
}
