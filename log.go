package fsmsim

import (
	"fmt"
	"sync"
)

// ActionLog is the engine-owned trace buffer. Every action performed,
// decision made and error swallowed during a run is appended as one line.
// Callers drain it to see only the lines produced since the last drain.
type ActionLog struct {
	mutex  sync.Mutex
	prefix string
	lines  []string
}

// NewActionLog creates an empty log. The prefix is prepended to every line;
// nested sub-machines use it to mark their lines in the parent trace.
func NewActionLog(prefix string) *ActionLog {
	return &ActionLog{prefix: prefix}
}

// Append adds a single line to the log
func (l *ActionLog) Append(line string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lines = append(l.lines, l.prefix+line)
}

// Appendf adds a formatted line to the log
func (l *ActionLog) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// AppendRaw adds a line without the prefix, used when merging already
// prefixed lines from a sub-machine
func (l *ActionLog) AppendRaw(line string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lines = append(l.lines, line)
}

// Drain returns all buffered lines and empties the buffer
func (l *ActionLog) Drain() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	drained := l.lines
	l.lines = nil
	return drained
}

// Len returns the number of buffered lines
func (l *ActionLog) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.lines)
}
