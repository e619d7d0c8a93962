package transcription

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Extraction is what the fallback extractor recovered for a video.
type Extraction struct {
	Title    string
	Language string
	Entries  []Entry
}

// Extractor is the fallback acquisition path used when the caption API is blocked.
type Extractor interface {
	Extract(ctx context.Context, videoID string, langs []string) (*Extraction, error)
}

// Cache stores fetched caption entries between requests.
type Cache interface {
	Get(ctx context.Context, videoID string, langs []string) ([]Entry, bool)
	Set(ctx context.Context, videoID string, langs []string, entries []Entry)
}

// Result is a successfully fetched transcript.
type Result struct {
	Entries []Entry
	// Source names the strategy that produced the entries.
	Source string
	// Title is set when the source also reported the video title.
	Title string
}

const sourceCache = "cache"

// Fetcher runs the strategy cascade with bounded retries.
type Fetcher struct {
	source         CaptionSource
	strategies     []Strategy
	extractor      Extractor
	cache          Cache
	languages      []string
	attempts       int
	attemptTimeout time.Duration
	newBackoff     func() backoff.BackOff
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *slog.Logger
}

type FetcherOption func(*Fetcher)

// WithAttempts sets how many times the whole cascade is tried.
func WithAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithAttemptTimeout bounds each pass over the strategies.
func WithAttemptTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.attemptTimeout = d }
}

// WithBackoff sets the policy for waits between attempts. A new BackOff is
// built for every Fetch call; returning backoff.Stop ends the retries early.
func WithBackoff(newBackoff func() backoff.BackOff) FetcherOption {
	return func(f *Fetcher) { f.newBackoff = newBackoff }
}

// WithSleep replaces the wait between attempts (tests use a recorder).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) { f.sleep = sleep }
}

func WithStrategies(strategies ...Strategy) FetcherOption {
	return func(f *Fetcher) { f.strategies = strategies }
}

func WithExtractor(e Extractor) FetcherOption {
	return func(f *Fetcher) { f.extractor = e }
}

func WithCache(c Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// WithLanguages sets the default language preference order.
func WithLanguages(langs []string) FetcherOption {
	return func(f *Fetcher) {
		if len(langs) > 0 {
			f.languages = langs
		}
	}
}

func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

func NewFetcher(source CaptionSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:         source,
		strategies:     DefaultStrategies(),
		languages:      DefaultLanguages,
		attempts:       3,
		attemptTimeout: 10 * time.Second,
		newBackoff: func() backoff.BackOff {
			return backoff.NewConstantBackOff(1500 * time.Millisecond)
		},
		sleep:  sleepContext,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the transcript of a video. langs overrides the default
// preference order when non-empty. On failure the error is a *FetchError and
// no entries are returned.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, langs []string) (*Result, error) {
	if len(langs) == 0 {
		langs = f.languages
	}
	if f.cache != nil {
		if entries, ok := f.cache.Get(ctx, videoID, langs); ok {
			f.logger.Debug("transcript: cache hit", slog.String("video_id", videoID))
			return &Result{Entries: entries, Source: sourceCache}, nil
		}
	}

	bo := f.newBackoff()
	var failures []Failure
	for attempt := 1; attempt <= f.attempts; attempt++ {
		res, fails := f.runAttempt(ctx, videoID, langs, attempt)
		failures = append(failures, fails...)
		if res != nil {
			f.logger.Info("transcript: fetched",
				slog.String("video_id", videoID),
				slog.String("strategy", res.Source),
				slog.Int("attempt", attempt),
				slog.Int("entries", len(res.Entries)))
			f.store(ctx, videoID, langs, res.Entries)
			return res, nil
		}
		if attempt == f.attempts || ctx.Err() != nil {
			break
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		f.logger.Warn("transcript: attempt failed, retrying",
			slog.String("video_id", videoID),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait))
		if err := f.sleep(ctx, wait); err != nil {
			break
		}
	}

	kind := Classify(failures)
	if f.extractor == nil || !kind.usesFallback() {
		return nil, &FetchError{Kind: kind, VideoID: videoID, Failures: failures}
	}

	f.logger.Warn("transcript: caption api exhausted, using extractor",
		slog.String("video_id", videoID),
		slog.String("kind", string(kind)))
	ext, err := f.extractor.Extract(ctx, videoID, langs)
	if err == nil && len(ext.Entries) > 0 {
		f.logger.Info("transcript: fetched",
			slog.String("video_id", videoID),
			slog.String("strategy", "yt-dlp"),
			slog.String("language", ext.Language),
			slog.Int("entries", len(ext.Entries)))
		f.store(ctx, videoID, langs, ext.Entries)
		return &Result{Entries: ext.Entries, Source: "yt-dlp", Title: ext.Title}, nil
	}
	if err == nil {
		err = ErrEmptyTranscript
	}
	f.logger.Error("transcript: extractor failed",
		slog.String("video_id", videoID),
		slog.Any("error", err))
	failures = append(failures, Failure{Attempt: f.attempts, Strategy: "yt-dlp", Err: err})
	return nil, &FetchError{Kind: KindExtractionFailed, VideoID: videoID, Failures: failures, Primary: kind}
}

// runAttempt tries every strategy once and returns the first non-empty result
// along with the failures it swallowed.
func (f *Fetcher) runAttempt(ctx context.Context, videoID string, langs []string, attempt int) (*Result, []Failure) {
	if f.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.attemptTimeout)
		defer cancel()
	}

	req := newRequest(f.source, videoID, langs)
	var failures []Failure
	for _, s := range f.strategies {
		entries, err := s.Run(ctx, req)
		if err == nil && len(entries) > 0 {
			return &Result{Entries: entries, Source: s.Name}, failures
		}
		if err == nil {
			err = ErrEmptyTranscript
		}
		f.logger.Debug("transcript: strategy failed",
			slog.String("video_id", videoID),
			slog.String("strategy", s.Name),
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		failures = append(failures, Failure{Attempt: attempt, Strategy: s.Name, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return nil, failures
}

func (f *Fetcher) store(ctx context.Context, videoID string, langs []string, entries []Entry) {
	if f.cache != nil {
		f.cache.Set(ctx, videoID, langs, entries)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
