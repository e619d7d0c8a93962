package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"sort"
	"strings"
	"time"

	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// ErrNoSubtitleTrack means yt-dlp listed no usable subtitle or caption track.
var ErrNoSubtitleTrack = errors.New("no subtitle track available")

// commandRunner runs a binary and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlp extracts subtitle track URLs with the yt-dlp binary and downloads
// the chosen track itself.
type YtDlp struct {
	binaryPath string
	httpClient *http.Client
	timeout    time.Duration
	run        commandRunner
}

// DefaultYtDlpTimeout bounds a whole fallback extraction.
const DefaultYtDlpTimeout = 45 * time.Second

// NewYtDlp builds the extractor. timeout bounds the yt-dlp run and the
// subtitle download together; zero means DefaultYtDlpTimeout.
func NewYtDlp(binaryPath string, httpClient *http.Client, timeout time.Duration) *YtDlp {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if timeout <= 0 {
		timeout = DefaultYtDlpTimeout
	}
	return &YtDlp{
		binaryPath: binaryPath,
		httpClient: httpClient,
		timeout:    timeout,
		run:        runCommand,
	}
}

// ytDlpInfo is the part of `yt-dlp --dump-json` we use.
type ytDlpInfo struct {
	ID                string                      `json:"id"`
	Title             string                      `json:"title"`
	Subtitles         map[string][]subtitleFormat `json:"subtitles"`
	AutomaticCaptions map[string][]subtitleFormat `json:"automatic_captions"`
}

type subtitleFormat struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

type subtitleChoice struct {
	lang    string
	formats []subtitleFormat
}

// Extract satisfies Extractor.
func (y *YtDlp) Extract(ctx context.Context, videoID string, langs []string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	info, err := y.dumpInfo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	choice, ok := chooseSubtitles(info, langs)
	if !ok {
		return nil, ErrNoSubtitleTrack
	}
	entries, err := y.download(ctx, choice.formats)
	if err != nil {
		return nil, fmt.Errorf("subtitle %s: %w", choice.lang, err)
	}
	return &Extraction{Title: info.Title, Language: choice.lang, Entries: entries}, nil
}

func (y *YtDlp) dumpInfo(ctx context.Context, videoID string) (*ytDlpInfo, error) {
	out, err := y.run(ctx, y.binaryPath,
		"--dump-json",
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--no-warnings",
		"--user-agent", youtube.BrowserUserAgent,
		"--add-header", "Accept-Language:en-US,en;q=0.9",
		"--add-header", "Referer:https://www.youtube.com/",
		youtube.WatchURL(videoID),
	)
	if err != nil {
		return nil, err
	}

	var info ytDlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	return &info, nil
}

// chooseSubtitles follows the language preference order (manual subtitles
// before automatic captions), then any manual track, then the original
// language automatic track, then the only automatic track if there is one.
func chooseSubtitles(info *ytDlpInfo, langs []string) (subtitleChoice, bool) {
	for _, lang := range langs {
		if f := usable(info.Subtitles[lang]); len(f) > 0 {
			return subtitleChoice{lang: lang, formats: f}, true
		}
		if f := usable(info.AutomaticCaptions[lang]); len(f) > 0 {
			return subtitleChoice{lang: lang, formats: f}, true
		}
	}

	for _, lang := range sortedKeys(info.Subtitles) {
		if f := usable(info.Subtitles[lang]); len(f) > 0 {
			return subtitleChoice{lang: lang, formats: f}, true
		}
	}
	for _, lang := range sortedKeys(info.AutomaticCaptions) {
		if !strings.HasSuffix(lang, "-orig") {
			continue
		}
		if f := usable(info.AutomaticCaptions[lang]); len(f) > 0 {
			return subtitleChoice{lang: strings.TrimSuffix(lang, "-orig"), formats: f}, true
		}
	}
	// A lone automatic track is the spoken language even without the -orig marker.
	if len(info.AutomaticCaptions) == 1 {
		for lang, formats := range info.AutomaticCaptions {
			if f := usable(formats); len(f) > 0 {
				return subtitleChoice{lang: lang, formats: f}, true
			}
		}
	}
	return subtitleChoice{}, false
}

// usable keeps the formats we can parse, json3 first.
func usable(formats []subtitleFormat) []subtitleFormat {
	var json3, vtt []subtitleFormat
	for _, f := range formats {
		switch f.Ext {
		case "json3":
			json3 = append(json3, f)
		case "vtt":
			vtt = append(vtt, f)
		}
	}
	return append(json3, vtt...)
}

func sortedKeys(m map[string][]subtitleFormat) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// download tries the formats in order until one parses into entries.
func (y *YtDlp) download(ctx context.Context, formats []subtitleFormat) ([]Entry, error) {
	var errs []error
	for _, f := range formats {
		body, err := y.get(ctx, f.URL)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		var entries []Entry
		switch f.Ext {
		case "json3":
			entries, err = ParseJSON3(body)
		case "vtt":
			entries, err = ParseVTT(string(body))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", f.Ext, err))
			continue
		}
		if len(entries) == 0 {
			errs = append(errs, ErrEmptyTranscript)
			continue
		}
		return entries, nil
	}
	return nil, errors.Join(errs...)
}

func (y *YtDlp) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", youtube.BrowserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download subtitle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download subtitle: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, truncate(stderr.String(), 500))
	}
	return out.Bytes(), nil
}
