package transcription

import (
	"strings"
	"testing"
)

func TestGroup(t *testing.T) {
	tests := []struct {
		name     string
		entries  []Entry
		interval float64
		want     []Segment
	}{
		{
			name:     "empty input",
			entries:  nil,
			interval: 30,
			want:     nil,
		},
		{
			name:     "single window",
			entries:  []Entry{{0, "a"}, {10, "b"}, {29.9, "c"}},
			interval: 30,
			want:     []Segment{{0, "a b c"}},
		},
		{
			name:     "boundary starts a new segment",
			entries:  []Entry{{0, "a"}, {30, "b"}, {45, "c"}, {60.5, "d"}},
			interval: 30,
			want:     []Segment{{0, "a"}, {30, "b c"}, {60.5, "d"}},
		},
		{
			name:     "window anchored at first entry",
			entries:  []Entry{{5, "a"}, {34, "b"}, {35, "c"}},
			interval: 30,
			want:     []Segment{{5, "a b"}, {35, "c"}},
		},
		{
			name:     "window of empty text emits nothing",
			entries:  []Entry{{0, ""}, {40, "b"}},
			interval: 30,
			want:     []Segment{{40, "b"}},
		},
		{
			name:     "empty text adds no separator",
			entries:  []Entry{{0, "a"}, {5, ""}, {10, "b"}},
			interval: 30,
			want:     []Segment{{0, "a b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Group(tt.entries, tt.interval)
			if len(got) != len(tt.want) {
				t.Fatalf("Group() got %d segments, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGroupProperties(t *testing.T) {
	var entries []Entry
	var texts []string
	for i := 0; i < 200; i++ {
		text := "w" + strings.Repeat("x", i%5)
		entries = append(entries, Entry{Start: float64(i) * 1.7, Text: text})
		texts = append(texts, text)
	}
	joined := strings.Join(texts, " ")

	prev := 0
	for _, interval := range []float64{120, 60, 30, 10, 5, 1} {
		segments := Group(entries, interval)

		var parts []string
		for _, s := range segments {
			if s.Text == "" {
				t.Fatalf("interval %v: empty segment", interval)
			}
			parts = append(parts, s.Text)
		}
		if got := strings.Join(parts, " "); got != joined {
			t.Errorf("interval %v: joined segments differ from joined entries", interval)
		}
		if len(segments) < prev {
			t.Errorf("interval %v: %d segments, fewer than %d at a larger interval", interval, len(segments), prev)
		}
		prev = len(segments)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{3661, "01:01:01"},
		{59.9, "00:00:59"},
		{600, "00:10:00"},
		{90061, "25:01:01"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	formatted, text := Format([]Segment{{0, "hello there"}, {31.5, "general kenobi"}})
	if text != "hello there general kenobi" {
		t.Errorf("Format() text = %q", text)
	}
	want := []FormattedSegment{{"00:00:00", "hello there"}, {"00:00:31", "general kenobi"}}
	if len(formatted) != len(want) {
		t.Fatalf("Format() got %d segments", len(formatted))
	}
	for i := range want {
		if formatted[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, formatted[i], want[i])
		}
	}
}
