package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"

	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// fakeSource serves a fixed track list. fetchErr maps a language to the
// error its download returns; cues maps a language to its content.
type fakeSource struct {
	tracks    []youtube.Track
	listErr   error
	fetchErr  map[string]error
	cues      map[string][]youtube.Cue
	listCalls int
	fetched   []string
	// failUntil makes ListTracks fail with listErr for the first n calls only.
	failUntil int
	// hangUntil makes ListTracks wait for ctx to end for the first n calls;
	// a negative value hangs on every call.
	hangUntil int
}

func (s *fakeSource) ListTracks(ctx context.Context, videoID string) ([]youtube.Track, error) {
	s.listCalls++
	if s.hangUntil < 0 || s.listCalls <= s.hangUntil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.listErr != nil && (s.failUntil == 0 || s.listCalls <= s.failUntil) {
		return nil, s.listErr
	}
	return s.tracks, nil
}

func (s *fakeSource) FetchTrack(ctx context.Context, track youtube.Track) ([]youtube.Cue, error) {
	s.fetched = append(s.fetched, track.LanguageCode)
	if err := s.fetchErr[track.LanguageCode]; err != nil {
		return nil, err
	}
	return s.cues[track.LanguageCode], nil
}

type fakeExtractor struct {
	ext   *Extraction
	err   error
	calls int
}

func (e *fakeExtractor) Extract(ctx context.Context, videoID string, langs []string) (*Extraction, error) {
	e.calls++
	return e.ext, e.err
}

type memoryCache map[string][]Entry

func (c memoryCache) Get(ctx context.Context, videoID string, langs []string) ([]Entry, bool) {
	e, ok := c[cacheKey(videoID, langs)]
	return e, ok
}

func (c memoryCache) Set(ctx context.Context, videoID string, langs []string, entries []Entry) {
	c[cacheKey(videoID, langs)] = entries
}

// sleepRecorder records requested waits without sleeping.
type sleepRecorder struct{ waits []time.Duration }

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

type stopBackOff struct{}

func (stopBackOff) NextBackOff() time.Duration { return backoff.Stop }
func (stopBackOff) Reset()                     {}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(src CaptionSource, rec *sleepRecorder, opts ...FetcherOption) *Fetcher {
	base := []FetcherOption{
		WithSleep(rec.sleep),
		WithBackoff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Second) }),
		WithLogger(quietLogger()),
	}
	return NewFetcher(src, append(base, opts...)...)
}

func cues(texts ...string) []youtube.Cue {
	out := make([]youtube.Cue, 0, len(texts))
	for i, t := range texts {
		out = append(out, youtube.Cue{Start: float64(i), Text: t})
	}
	return out
}

func TestFetchDefaultLanguage(t *testing.T) {
	src := &fakeSource{
		tracks: []youtube.Track{{LanguageCode: "de"}, {LanguageCode: "en"}},
		cues:   map[string][]youtube.Cue{"en": cues("hello", "world"), "de": cues("hallo")},
	}
	rec := &sleepRecorder{}
	res, err := newTestFetcher(src, rec).Fetch(context.Background(), "vid", nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Source != "default-language" || len(res.Entries) != 2 || res.Entries[0].Text != "hello" {
		t.Errorf("Fetch() = %+v", res)
	}
	if len(rec.waits) != 0 {
		t.Errorf("unexpected waits %v", rec.waits)
	}
}

func TestFetchNonEnglishTrack(t *testing.T) {
	tests := []struct {
		name       string
		lang       string
		wantSource string
	}{
		{name: "in preference list", lang: "ja", wantSource: "preferred-language"},
		{name: "only via enumeration", lang: "sv", wantSource: "any-track"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{
				tracks: []youtube.Track{{LanguageCode: tt.lang}},
				cues:   map[string][]youtube.Cue{tt.lang: cues("konnichiwa")},
			}
			res, err := newTestFetcher(src, &sleepRecorder{}).Fetch(context.Background(), "vid", nil)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if res.Source != tt.wantSource || res.Entries[0].Text != "konnichiwa" {
				t.Errorf("Fetch() = %+v, want source %s", res, tt.wantSource)
			}
			if src.listCalls != 1 {
				t.Errorf("track list fetched %d times in one attempt, want 1", src.listCalls)
			}
		})
	}
}

func TestFetchAnyTrackSkipsFailingTracks(t *testing.T) {
	src := &fakeSource{
		tracks:   []youtube.Track{{LanguageCode: "sv"}, {LanguageCode: "nl"}, {LanguageCode: "fi"}},
		fetchErr: map[string]error{"sv": errors.New("boom")},
		cues:     map[string][]youtube.Cue{"fi": cues("moi")},
	}
	res, err := newTestFetcher(src, &sleepRecorder{}).Fetch(context.Background(), "vid", nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Entries[0].Text != "moi" {
		t.Errorf("Fetch() = %+v", res)
	}
	if fmt.Sprint(src.fetched) != "[sv nl fi]" {
		t.Errorf("tracks tried in order %v", src.fetched)
	}
}

func TestFetchCallerLanguages(t *testing.T) {
	src := &fakeSource{
		tracks: []youtube.Track{{LanguageCode: "en"}, {LanguageCode: "fr"}},
		fetchErr: map[string]error{
			"en": &youtube.ParseError{VideoID: "vid", Err: io.EOF},
		},
		cues: map[string][]youtube.Cue{"fr": cues("bonjour")},
	}
	res, err := newTestFetcher(src, &sleepRecorder{}).Fetch(context.Background(), "vid", []string{"fr"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Source != "preferred-language" || res.Entries[0].Text != "bonjour" {
		t.Errorf("Fetch() = %+v", res)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	src := &fakeSource{
		tracks:    []youtube.Track{{LanguageCode: "en"}},
		listErr:   youtube.ErrTooManyRequests,
		failUntil: 2,
		cues:      map[string][]youtube.Cue{"en": cues("finally")},
	}
	rec := &sleepRecorder{}
	res, err := newTestFetcher(src, rec).Fetch(context.Background(), "vid", nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Entries[0].Text != "finally" {
		t.Errorf("Fetch() = %+v", res)
	}
	if len(rec.waits) != 2 || rec.waits[0] != time.Second {
		t.Errorf("waits = %v, want two waits of 1s", rec.waits)
	}
}

func TestFetchFailureClassification(t *testing.T) {
	tests := []struct {
		name    string
		src     *fakeSource
		want    Kind
		wantMsg string
	}{
		{
			name: "no captions",
			src:  &fakeSource{listErr: youtube.ErrTranscriptsDisabled},
			want: KindNoCaptions,
		},
		{
			name: "empty tracks",
			src: &fakeSource{
				tracks: []youtube.Track{{LanguageCode: "en"}},
				cues:   map[string][]youtube.Cue{},
			},
			want: KindNoCaptions,
		},
		{
			name: "parse error means blocked",
			src: &fakeSource{
				tracks:   []youtube.Track{{LanguageCode: "en"}},
				fetchErr: map[string]error{"en": &youtube.ParseError{VideoID: "vid", Err: io.EOF}},
			},
			want: KindAccessBlocked,
		},
		{
			name: "recaptcha",
			src:  &fakeSource{listErr: fmt.Errorf("%w: recaptcha", youtube.ErrRequestBlocked)},
			want: KindAccessBlocked,
		},
		{
			name: "rate limited",
			src:  &fakeSource{listErr: youtube.ErrTooManyRequests},
			want: KindRateLimited,
		},
		{
			name: "private",
			src:  &fakeSource{listErr: youtube.ErrPrivate},
			want: KindPrivate,
		},
		{
			name: "age restricted",
			src:  &fakeSource{listErr: youtube.ErrAgeRestricted},
			want: KindAgeRestricted,
		},
		{
			name: "unavailable",
			src:  &fakeSource{listErr: youtube.ErrVideoUnavailable},
			want: KindVideoUnavailable,
		},
		{
			name: "unknown",
			src:  &fakeSource{listErr: errors.New("connection reset")},
			want: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sleepRecorder{}
			res, err := newTestFetcher(tt.src, rec, WithAttempts(3)).Fetch(context.Background(), "vid", nil)
			if res != nil {
				t.Fatalf("Fetch() returned entries on failure: %+v", res)
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("Fetch() error = %v, want *FetchError", err)
			}
			if fe.Kind != tt.want {
				t.Errorf("Kind = %s, want %s (%v)", fe.Kind, tt.want, err)
			}
			if KindOf(err) != tt.want {
				t.Errorf("KindOf() = %s, want %s", KindOf(err), tt.want)
			}
			if len(rec.waits) != 2 {
				t.Errorf("waits = %v, want 2 (3 attempts)", rec.waits)
			}
			if got := len(fe.Failures); got != 9 {
				t.Errorf("recorded %d failures, want 9 (3 strategies x 3 attempts)", got)
			}
		})
	}
}

func TestFetchBackoffStop(t *testing.T) {
	src := &fakeSource{listErr: youtube.ErrTooManyRequests}
	rec := &sleepRecorder{}
	f := newTestFetcher(src, rec,
		WithAttempts(5),
		WithBackoff(func() backoff.BackOff { return stopBackOff{} }),
	)
	if _, err := f.Fetch(context.Background(), "vid", nil); KindOf(err) != KindRateLimited {
		t.Fatalf("Fetch() error = %v", err)
	}
	if src.listCalls != 1 || len(rec.waits) != 0 {
		t.Errorf("listCalls = %d waits = %v, want a single attempt", src.listCalls, rec.waits)
	}
}

func TestFetchContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{listErr: context.Canceled}
	rec := &sleepRecorder{}
	_, err := newTestFetcher(src, rec).Fetch(ctx, "vid", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if src.listCalls != 1 || len(rec.waits) != 0 {
		t.Errorf("listCalls = %d waits = %v, want no retries after cancel", src.listCalls, rec.waits)
	}
}

func TestFetchFallbackExtractor(t *testing.T) {
	blocked := &fakeSource{
		tracks:   []youtube.Track{{LanguageCode: "en"}},
		fetchErr: map[string]error{"en": &youtube.ParseError{VideoID: "vid", Err: io.EOF}},
	}

	t.Run("used when blocked", func(t *testing.T) {
		ext := &fakeExtractor{ext: &Extraction{Title: "A Title", Entries: []Entry{{Start: 1, Text: "from yt-dlp"}}}}
		res, err := newTestFetcher(blocked, &sleepRecorder{}, WithExtractor(ext)).Fetch(context.Background(), "vid", nil)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if res.Source != "yt-dlp" || res.Title != "A Title" || res.Entries[0].Text != "from yt-dlp" {
			t.Errorf("Fetch() = %+v", res)
		}
	})

	t.Run("extractor failure", func(t *testing.T) {
		ext := &fakeExtractor{err: ErrNoSubtitleTrack}
		_, err := newTestFetcher(blocked, &sleepRecorder{}, WithExtractor(ext)).Fetch(context.Background(), "vid", nil)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch() error = %v, want *FetchError", err)
		}
		if fe.Kind != KindExtractionFailed || fe.Primary != KindAccessBlocked {
			t.Errorf("Kind = %s Primary = %s", fe.Kind, fe.Primary)
		}
		if !errors.Is(err, ErrNoSubtitleTrack) {
			t.Errorf("extractor error not wrapped: %v", err)
		}
	})

	t.Run("not used when video has no captions", func(t *testing.T) {
		ext := &fakeExtractor{}
		src := &fakeSource{listErr: youtube.ErrTranscriptsDisabled}
		_, err := newTestFetcher(src, &sleepRecorder{}, WithExtractor(ext)).Fetch(context.Background(), "vid", nil)
		if KindOf(err) != KindNoCaptions {
			t.Errorf("Fetch() error = %v", err)
		}
		if ext.calls != 0 {
			t.Errorf("extractor called %d times", ext.calls)
		}
	})
}

func TestFetchCache(t *testing.T) {
	src := &fakeSource{
		tracks: []youtube.Track{{LanguageCode: "en"}},
		cues:   map[string][]youtube.Cue{"en": cues("cached")},
	}
	cache := memoryCache{}
	f := newTestFetcher(src, &sleepRecorder{}, WithCache(cache))

	if _, err := f.Fetch(context.Background(), "vid", nil); err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	res, err := f.Fetch(context.Background(), "vid", nil)
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if res.Source != sourceCache || res.Entries[0].Text != "cached" {
		t.Errorf("second Fetch() = %+v", res)
	}
	if src.listCalls != 1 {
		t.Errorf("listCalls = %d, want 1", src.listCalls)
	}
}

func TestFetchAttemptTimeout(t *testing.T) {
	t.Run("hung attempt is retried", func(t *testing.T) {
		src := &fakeSource{
			tracks:    []youtube.Track{{LanguageCode: "en"}},
			cues:      map[string][]youtube.Cue{"en": cues("second try")},
			hangUntil: 1,
		}
		rec := &sleepRecorder{}
		f := newTestFetcher(src, rec, WithAttemptTimeout(10*time.Millisecond))

		res, err := f.Fetch(context.Background(), "vid", nil)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if res.Entries[0].Text != "second try" {
			t.Errorf("Fetch() = %+v", res)
		}
		if src.listCalls != 2 || len(rec.waits) != 1 {
			t.Errorf("listCalls = %d waits = %v, want 2 attempts and 1 wait", src.listCalls, rec.waits)
		}
	})

	t.Run("every attempt hangs", func(t *testing.T) {
		src := &fakeSource{hangUntil: -1}
		ext := &fakeExtractor{ext: &Extraction{Language: "en", Entries: []Entry{{Text: "fallback"}}}}
		rec := &sleepRecorder{}
		f := newTestFetcher(src, rec, WithAttemptTimeout(10*time.Millisecond))

		_, err := f.Fetch(context.Background(), "vid", nil)
		if KindOf(err) != KindUnknown {
			t.Errorf("Fetch() kind = %s, want %s (%v)", KindOf(err), KindUnknown, err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Fetch() error = %v, want it to wrap deadline exceeded", err)
		}
		if src.listCalls != 3 {
			t.Errorf("listCalls = %d, want 3 attempts", src.listCalls)
		}

		var logs bytes.Buffer
		f = newTestFetcher(src, rec,
			WithAttemptTimeout(10*time.Millisecond),
			WithExtractor(ext),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		res, err := f.Fetch(context.Background(), "vid", nil)
		if err != nil {
			t.Fatalf("Fetch() with extractor error = %v", err)
		}
		if res.Source != "yt-dlp" || ext.calls != 1 {
			t.Errorf("Fetch() = %+v, extractor calls %d", res, ext.calls)
		}
		if !strings.Contains(logs.String(), "strategy=yt-dlp language=en") {
			t.Errorf("extractor success log missing language: %s", logs.String())
		}
	})
}
