package transcription

import (
	"fmt"
	"math"
	"strings"
)

// DefaultInterval is the segment length used by the HTTP handler.
const DefaultInterval = 30.0

// Group buckets entries into segments of at most interval seconds measured
// from the first entry of each segment. Order is preserved; entries without
// text contribute nothing and never produce a segment of their own.
func Group(entries []Entry, interval float64) []Segment {
	var segments []Segment
	var current strings.Builder
	windowStart := 0.0
	open := false

	for _, e := range entries {
		if !open {
			windowStart = e.Start
			open = true
		}
		if e.Start < windowStart+interval {
			if e.Text == "" {
				continue
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(e.Text)
			continue
		}
		if current.Len() > 0 {
			segments = append(segments, Segment{Start: windowStart, Text: current.String()})
		}
		current.Reset()
		current.WriteString(e.Text)
		windowStart = e.Start
	}

	if current.Len() > 0 {
		segments = append(segments, Segment{Start: windowStart, Text: current.String()})
	}
	return segments
}

// FormatTimestamp renders seconds as HH:MM:SS, truncating fractions.
// Hours are not capped at 24.
func FormatTimestamp(seconds float64) string {
	total := int64(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Format renders segments for the response and returns the space-joined text
// that is sent for summarization.
func Format(segments []Segment) ([]FormattedSegment, string) {
	formatted := make([]FormattedSegment, 0, len(segments))
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		formatted = append(formatted, FormattedSegment{
			Timestamp: FormatTimestamp(s.Start),
			Text:      s.Text,
		})
		parts = append(parts, s.Text)
	}
	return formatted, strings.Join(parts, " ")
}
