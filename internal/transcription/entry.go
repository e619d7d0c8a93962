package transcription

import "jamesfarrell.me/youtube-summary/internal/youtube"

// Entry is one timed caption line, start in seconds.
type Entry struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// Segment groups consecutive entries that fall within one interval window.
type Segment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// FormattedSegment is a Segment with its start rendered as HH:MM:SS.
type FormattedSegment struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

func entriesFromCues(cues []youtube.Cue) []Entry {
	entries := make([]Entry, 0, len(cues))
	for _, c := range cues {
		entries = append(entries, Entry{Start: c.Start, Text: c.Text})
	}
	return entries
}
