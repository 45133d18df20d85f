package player

import (
	"strings"
	"sync"
)

// InfoLog is a capped, rolling list of user-visible status lines. Once the
// cap is reached the oldest line is dropped for every new one. A version
// number lets a poller skip rebuilding text that has not changed.
type InfoLog struct {
	mu      sync.Mutex
	max     int
	lines   []string
	version uint64
	// added counts every line ever appended, including dropped ones.
	added uint64
}

// NewInfoLog creates a log holding at most maxLines lines.
func NewInfoLog(maxLines int) *InfoLog {
	if maxLines <= 0 {
		maxLines = 1
	}
	return &InfoLog{max: maxLines, version: 1}
}

// AddLine appends one line.
func (l *InfoLog) AddLine(line string) {
	l.mu.Lock()
	l.append(line)
	l.version++
	l.mu.Unlock()
}

// AddLines appends several lines as a single update.
func (l *InfoLog) AddLines(lines ...string) {
	if len(lines) == 0 {
		return
	}
	l.mu.Lock()
	for _, line := range lines {
		l.append(line)
	}
	l.version++
	l.mu.Unlock()
}

func (l *InfoLog) append(line string) {
	l.added++
	if len(l.lines) >= l.max {
		copy(l.lines, l.lines[1:])
		l.lines[len(l.lines)-1] = line
		return
	}
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the current lines, oldest first.
func (l *InfoLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Version returns a counter that changes on every update.
func (l *InfoLog) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// TextSince returns the joined lines and the current version when the log
// changed after version seen. Otherwise changed is false and text is empty.
func (l *InfoLog) TextSince(seen uint64) (text string, version uint64, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.version == seen {
		return "", seen, false
	}
	return strings.Join(l.lines, "\n"), l.version, true
}

// LinesSince returns the retained lines appended after the first seen
// lines ever added, and the new count to pass next time. Lines already
// dropped by the cap are skipped.
func (l *InfoLog) LinesSince(seen uint64) (lines []string, next uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seen >= l.added {
		return nil, l.added
	}
	n := min(l.added-seen, uint64(len(l.lines)))
	out := make([]string, n)
	copy(out, l.lines[uint64(len(l.lines))-n:])
	return out, l.added
}
