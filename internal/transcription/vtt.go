package transcription

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var vttTagRE = regexp.MustCompile(`<[^>]*>`)

// ParseVTT parses WebVTT content into entries. Cue settings after the
// timestamps are ignored, inline tags are stripped, and lines repeated from
// the previous cue (rolling auto-generated captions) are dropped.
func ParseVTT(content string) ([]Entry, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	if !strings.HasPrefix(content, "WEBVTT") {
		return nil, fmt.Errorf("invalid VTT format: missing WEBVTT header")
	}

	entries := []Entry{}
	lastLine := ""
	blocks := strings.Split(content, "\n\n")

	for _, block := range blocks {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")

		// The timing line may follow an optional cue identifier
		timing := -1
		for i, line := range lines {
			if strings.Contains(line, " --> ") {
				timing = i
				break
			}
		}
		if timing == -1 || timing == len(lines)-1 {
			continue
		}

		timestamps := strings.Split(lines[timing], " --> ")
		start, err := parseVTTTimestamp(strings.TrimSpace(timestamps[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start timestamp: %w", err)
		}

		var text []string
		for _, line := range lines[timing+1:] {
			line = strings.TrimSpace(vttTagRE.ReplaceAllString(line, ""))
			if line == "" || line == lastLine {
				continue
			}
			text = append(text, line)
			lastLine = line
		}
		if len(text) == 0 {
			continue
		}

		entries = append(entries, Entry{
			Start: start.Seconds(),
			Text:  strings.Join(text, " "),
		})
	}

	return entries, nil
}

// parseVTTTimestamp accepts HH:MM:SS.mmm and MM:SS.mmm.
func parseVTTTimestamp(timestamp string) (time.Duration, error) {
	if fields := strings.Fields(timestamp); len(fields) > 0 {
		timestamp = fields[0]
	}

	// Validate format (HH:MM:SS.mmm)
	if !strings.Contains(timestamp, ".") {
		return 0, fmt.Errorf("invalid timestamp format: missing milliseconds")
	}

	parts := strings.Split(timestamp, ":")
	if len(parts) == 2 {
		parts = append([]string{"00"}, parts...)
	}
	if len(parts) != 3 || len(parts[0]) < 2 {
		return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours: %w", err)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}

	// Split seconds and milliseconds
	secondParts := strings.Split(parts[2], ".")
	if len(secondParts) != 2 {
		return 0, fmt.Errorf("invalid seconds format: missing milliseconds")
	}

	seconds, err := strconv.Atoi(secondParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds: %w", err)
	}

	milliseconds, err := strconv.Atoi(secondParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds: %w", err)
	}

	duration := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(milliseconds)*time.Millisecond

	return duration, nil
}
