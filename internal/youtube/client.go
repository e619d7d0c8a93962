package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.youtube.com"

var apiKeyRE = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)

// Track is one caption track listed for a video.
type Track struct {
	VideoID      string
	LanguageCode string
	Name         string
	BaseURL      string
	Generated    bool
}

// Cue is a single timed caption line.
type Cue struct {
	Start    float64
	Duration float64
	Text     string
}

// Client talks to the YouTube watch page, the innertube player endpoint
// and the timed-text caption URLs it returns.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTracks returns every caption track of a video in the order YouTube lists them.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	page, err := c.fetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(page, []byte(`class="g-recaptcha"`)) {
		return nil, fmt.Errorf("%w: recaptcha challenge on watch page", ErrRequestBlocked)
	}
	m := apiKeyRE.FindSubmatch(page)
	if m == nil {
		return nil, &ParseError{VideoID: videoID, Err: errors.New("innertube api key not found in watch page")}
	}

	player, err := c.fetchPlayer(ctx, videoID, string(m[1]))
	if err != nil {
		return nil, err
	}
	if err := playabilityError(player); err != nil {
		return nil, err
	}
	if player.Captions == nil {
		return nil, ErrTranscriptsDisabled
	}
	raw := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	tracks := make([]Track, 0, len(raw))
	for _, t := range raw {
		tracks = append(tracks, Track{
			VideoID:      videoID,
			LanguageCode: t.LanguageCode,
			Name:         t.displayName(),
			BaseURL:      strings.Replace(t.BaseURL, "&fmt=srv3", "", 1),
			Generated:    t.Kind == "asr",
		})
	}
	return tracks, nil
}

// FetchTrack downloads and parses the timed-text payload of a track.
func (c *Client) FetchTrack(ctx context.Context, track Track) ([]Cue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := c.do(req, 4*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("fetch %s track: %w", track.LanguageCode, err)
	}
	cues, err := ParseTimedText(body)
	if err != nil {
		return nil, &ParseError{VideoID: track.VideoID, Err: err}
	}
	return cues, nil
}

// FindTrack picks the first track matching langs in order, preferring a
// manually created track over an auto-generated one for the same language.
func FindTrack(tracks []Track, langs []string) (Track, error) {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && !t.Generated {
				return t, nil
			}
		}
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, nil
			}
		}
	}
	return Track{}, fmt.Errorf("%w: %s", ErrNoTranscriptFound, strings.Join(langs, ", "))
}

func (c *Client) fetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/watch?v="+videoID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", "CONSENT=YES+cb")

	body, err := c.do(req, 6*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	return body, nil
}

func (c *Client) fetchPlayer(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	payload, err := json.Marshal(newPlayerRequest(videoID))
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/youtubei/v1/player?prettyPrint=false&key=" + apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidClientVersion)

	body, err := c.do(req, 3*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{VideoID: videoID, Err: fmt.Errorf("decode player: %w", err)}
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Host + req.URL.Path}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// playabilityError maps a non-OK playability status to one of the sentinel errors.
func playabilityError(p *playerResponse) error {
	if p.PlayabilityStatus == nil {
		return nil
	}
	status := p.PlayabilityStatus.Status
	reason := p.PlayabilityStatus.Reason
	if status == "" || status == "OK" {
		return nil
	}
	lower := strings.ToLower(reason)

	switch {
	case strings.Contains(lower, "not a bot"):
		return fmt.Errorf("%w: %s", ErrRequestBlocked, reason)
	case strings.Contains(lower, "private"):
		return fmt.Errorf("%w: %s", ErrPrivate, reason)
	case strings.Contains(lower, "confirm your age"), strings.Contains(lower, "inappropriate for some users"):
		return fmt.Errorf("%w: %s", ErrAgeRestricted, reason)
	default:
		if reason == "" {
			reason = status
		}
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	}
}
