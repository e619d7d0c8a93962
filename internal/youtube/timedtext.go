package youtube

import (
	"encoding/xml"
	"errors"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagRE = regexp.MustCompile(`<[^>]*>`)

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// ParseTimedText decodes the XML caption format served from a track's baseUrl.
// Lines whose text is empty after cleanup are skipped.
func ParseTimedText(data []byte) ([]Cue, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("empty timed-text payload")
	}
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, err
	}

	cues := make([]Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(tagRE.ReplaceAllString(html.UnescapeString(line.Text), ""))
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		cues = append(cues, Cue{Start: start, Duration: dur, Text: text})
	}
	return cues, nil
}
