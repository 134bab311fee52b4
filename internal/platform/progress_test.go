package platform

import (
	"reflect"
	"testing"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected int
		ok       bool
	}{
		{"truncates fraction", "[download] 42.7%", 42, true},
		{"typical line", "[download]  12.3% of   10.00MiB at    2.50MiB/s ETA 00:03", 12, true},
		{"integer percent", "[download] 100% of 3.2MiB in 00:00:02", 100, true},
		{"complete with fraction", "[download] 100.0% of 3.2MiB", 100, true},
		{"zero", "[download]   0.0% of ~ 5.00MiB", 0, true},
		{"destination line", "[download] Destination: downloads/Song.webm", 0, false},
		{"other marker", "[ExtractAudio] Destination: downloads/Song.mp3", 0, false},
		{"no marker", "42.7%", 0, false},
		{"empty", "", 0, false},
		{"over hundred", "[download] 420.0%", 0, false},
		{"garbage", "\x00\xff[download]", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgress(tt.line)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("ParseProgress(%q) = (%d, %v), expected (%d, %v)", tt.line, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestProgressThrottle(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected []int
	}{
		{
			name:     "only exact multiples of ten",
			input:    []int{9, 10, 10, 20, 55, 60, 100},
			expected: []int{10, 20, 60, 100},
		},
		{
			name:     "chatty process",
			input:    []int{5, 12, 19, 21, 30, 30, 55, 100},
			expected: []int{30, 100},
		},
		{
			name:     "never decreases",
			input:    []int{50, 40, 30, 60},
			expected: []int{50, 60},
		},
		{
			name:     "no synthesis on jumps",
			input:    []int{5, 37, 99},
			expected: nil,
		},
		{
			name:     "zero is reported once",
			input:    []int{0, 0, 1},
			expected: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			throttle := NewProgressThrottle()
			var got []int
			for _, p := range tt.input {
				if throttle.Observe(p) {
					got = append(got, p)
				}
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestProgressThrottle_Last(t *testing.T) {
	throttle := NewProgressThrottle()
	if throttle.Last() != -1 {
		t.Errorf("expected -1, got %d", throttle.Last())
	}
	throttle.Observe(20)
	throttle.Observe(25)
	if throttle.Last() != 20 {
		t.Errorf("expected 20, got %d", throttle.Last())
	}
}
