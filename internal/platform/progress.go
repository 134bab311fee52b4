package platform

import (
	"regexp"
	"strconv"
)

// Progress markers
const (
	ProgressMarker  = "[download]"
	MaxPercent      = 100
	ProgressStep    = 10
	ProgressPattern = `\[download\]\s+(\d{1,3})(?:\.\d+)?%`
)

var progressRe = regexp.MustCompile(ProgressPattern)

// ParseProgress extracts the percentage from a yt-dlp output line. The
// fractional part is truncated. Lines without the marker yield false.
func ParseProgress(line string) (int, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	percent, err := strconv.Atoi(m[1])
	if err != nil || percent > MaxPercent {
		return 0, false
	}
	return percent, true
}

// ProgressThrottle decides which parsed percentages are worth an edit of the
// status message. Only exact multiples of ProgressStep that are strictly
// greater than the last reported value pass; jumps are not back-filled.
type ProgressThrottle struct {
	last int
}

// NewProgressThrottle creates a throttle with nothing reported yet
func NewProgressThrottle() *ProgressThrottle {
	return &ProgressThrottle{last: -1}
}

// Observe records percent and reports whether it should be forwarded
func (t *ProgressThrottle) Observe(percent int) bool {
	if percent <= t.last {
		return false
	}
	if percent%ProgressStep != 0 && percent != MaxPercent {
		return false
	}
	t.last = percent
	return true
}

// Last returns the last forwarded percentage, -1 if none
func (t *ProgressThrottle) Last() int {
	return t.last
}
