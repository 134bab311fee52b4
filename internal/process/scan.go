package process

import (
	"bytes"
	"strings"
)

// ScanLines is a bufio.SplitFunc that ends a line on '\n' or '\r'. yt-dlp
// redraws its progress line with carriage returns when not told --newline.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// tailBuffer keeps the most recent lines up to a byte budget
type tailBuffer struct {
	limit int
	size  int
	lines []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

// WriteLine appends a line, dropping the oldest ones past the budget
func (t *tailBuffer) WriteLine(line string) {
	if len(line) > t.limit {
		line = line[len(line)-t.limit:]
	}
	t.lines = append(t.lines, line)
	t.size += len(line) + 1
	for t.size > t.limit && len(t.lines) > 1 {
		t.size -= len(t.lines[0]) + 1
		t.lines = t.lines[1:]
	}
}

// String returns the kept lines joined by newlines
func (t *tailBuffer) String() string {
	return strings.Join(t.lines, "\n")
}
