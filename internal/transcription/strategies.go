package transcription

import (
	"context"
	"errors"

	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// DefaultLanguage is the implicit language of the direct fetch.
const DefaultLanguage = "en"

// DefaultLanguages is the preference order used when the caller gives none.
var DefaultLanguages = []string{"en", "id", "es", "fr", "de", "pt", "ja", "ko", "zh-Hans", "zh-Hant"}

// CaptionSource lists and downloads caption tracks. *youtube.Client satisfies it.
type CaptionSource interface {
	ListTracks(ctx context.Context, videoID string) ([]youtube.Track, error)
	FetchTrack(ctx context.Context, track youtube.Track) ([]youtube.Cue, error)
}

// Request is the state shared by the strategies of a single attempt. The
// track listing is fetched at most once per attempt.
type Request struct {
	VideoID   string
	Languages []string

	source  CaptionSource
	listed  bool
	tracks  []youtube.Track
	listErr error
}

func newRequest(source CaptionSource, videoID string, langs []string) *Request {
	return &Request{VideoID: videoID, Languages: langs, source: source}
}

// Tracks returns the video's caption tracks.
func (r *Request) Tracks(ctx context.Context) ([]youtube.Track, error) {
	if !r.listed {
		r.tracks, r.listErr = r.source.ListTracks(ctx, r.VideoID)
		r.listed = true
	}
	return r.tracks, r.listErr
}

// FetchTrack downloads one track as entries.
func (r *Request) FetchTrack(ctx context.Context, track youtube.Track) ([]Entry, error) {
	cues, err := r.source.FetchTrack(ctx, track)
	if err != nil {
		return nil, err
	}
	return entriesFromCues(cues), nil
}

// Strategy is one named way of getting a transcript.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, req *Request) ([]Entry, error)
}

// DefaultStrategies returns the cascade in the order it is tried.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "default-language", Run: fetchDefaultLanguage},
		{Name: "preferred-language", Run: fetchPreferredLanguage},
		{Name: "any-track", Run: fetchAnyTrack},
	}
}

func fetchDefaultLanguage(ctx context.Context, req *Request) ([]Entry, error) {
	return fetchFirstMatch(ctx, req, []string{DefaultLanguage})
}

func fetchPreferredLanguage(ctx context.Context, req *Request) ([]Entry, error) {
	return fetchFirstMatch(ctx, req, req.Languages)
}

func fetchFirstMatch(ctx context.Context, req *Request, langs []string) ([]Entry, error) {
	tracks, err := req.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	track, err := youtube.FindTrack(tracks, langs)
	if err != nil {
		return nil, err
	}
	return req.FetchTrack(ctx, track)
}

// fetchAnyTrack walks every listed track in order until one yields entries.
func fetchAnyTrack(ctx context.Context, req *Request) ([]Entry, error) {
	tracks, err := req.Tracks(ctx)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, youtube.ErrTranscriptsDisabled
	}

	var errs []error
	for _, track := range tracks {
		entries, err := req.FetchTrack(ctx, track)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err == nil {
			err = ErrEmptyTranscript
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
