package ui

import (
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// LogMsg carries one log line to the logs tab.
type LogMsg struct {
	Line string
}

// LogBridge is an io.Writer for the standard logger that forwards each line
// to the UI as a LogMsg. Lines written before the program exists queue up and
// flush on Attach. Writing to a terminal-backed stderr would corrupt the
// alternate screen; the bridge is the only log destination while the UI runs.
//
// Delivery runs on a dedicated goroutine so a Write from inside the UI loop
// can never deadlock against the program's own mailbox. When the queue is
// full the oldest lines are dropped.
type LogBridge struct {
	mu       sync.Mutex
	partial  strings.Builder
	lines    chan string
	attached bool
}

// NewLogBridge creates a bridge with a bounded queue.
func NewLogBridge() *LogBridge {
	return &LogBridge{lines: make(chan string, 1000)}
}

// Attach connects the bridge to a running program. Queued lines, including
// everything logged during startup, are delivered in order. Attach more than
// once is a no-op.
func (b *LogBridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	if b.attached {
		b.mu.Unlock()
		return
	}
	b.attached = true
	b.mu.Unlock()

	go func() {
		for line := range b.lines {
			send(LogMsg{Line: line})
		}
	}()
}

// Write implements io.Writer. Input is split on newlines; an incomplete
// trailing fragment is held until a later write completes it.
func (b *LogBridge) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.WriteString(string(p))
	for {
		s := b.partial.String()
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			break
		}
		line := s[:i]
		b.partial.Reset()
		b.partial.WriteString(s[i+1:])
		b.enqueue(line)
	}
	return len(p), nil
}

func (b *LogBridge) enqueue(line string) {
	for {
		select {
		case b.lines <- line:
			return
		default:
		}
		// Queue full: drop the oldest line and retry.
		select {
		case <-b.lines:
		default:
		}
	}
}
