package transcription

import (
	"encoding/json"
	"strings"
)

type json3Payload struct {
	Events []struct {
		TStartMs float64 `json:"tStartMs"`
		Segs     []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ParseJSON3 decodes YouTube's json3 timed-text format. Each event's
// segments are concatenated; events without text are discarded.
func ParseJSON3(data []byte) ([]Entry, error) {
	var payload json3Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(payload.Events))
	for _, ev := range payload.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Start: ev.TStartMs / 1000, Text: text})
	}
	return entries, nil
}
