package transcription

import (
	"context"
	"fmt"
	"log/slog"

	"jamesfarrell.me/youtube-summary/internal/summary"
	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// TranscriptFetcher is satisfied by *Fetcher.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, langs []string) (*Result, error)
}

// TitleResolver is satisfied by *youtube.TitleLookup.
type TitleResolver interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// Summarizer is satisfied by *summary.Summarizer.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summary.Result
}

// Service runs the whole pipeline for one video URL.
type Service struct {
	fetcher    TranscriptFetcher
	summarizer Summarizer
	titles     TitleResolver
	interval   float64
	logger     *slog.Logger
}

type ServiceOption func(*Service)

// WithTitleResolver enables title lookup. Without it the placeholder title is used.
func WithTitleResolver(r TitleResolver) ServiceOption {
	return func(s *Service) { s.titles = r }
}

// WithInterval sets the grouping window in seconds.
func WithInterval(seconds float64) ServiceOption {
	return func(s *Service) {
		if seconds > 0 {
			s.interval = seconds
		}
	}
}

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func NewService(fetcher TranscriptFetcher, summarizer Summarizer, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher:    fetcher,
		summarizer: summarizer,
		interval:   DefaultInterval,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Details is a fetched and grouped transcript.
type Details struct {
	VideoID    string
	Title      string
	Source     string
	Transcript []FormattedSegment
	// Text is the space-joined transcript sent for summarization.
	Text string
}

// Report is Details plus the summary. SummaryErr is set when Summary holds an
// error message instead of a summary.
type Report struct {
	Details
	Summary    string
	SummaryErr error
}

// Transcript resolves the video id, fetches and groups its captions and
// looks up the title. Errors wrap youtube.ErrInvalidURL or are *FetchError.
func (s *Service) Transcript(ctx context.Context, videoURL string, langs []string) (*Details, error) {
	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, videoURL)
	}

	res, err := s.fetcher.Fetch(ctx, videoID, langs)
	if err != nil {
		s.logger.Warn("service: transcript unavailable",
			slog.String("video_id", videoID),
			slog.String("kind", string(KindOf(err))),
			slog.Any("error", err))
		return nil, err
	}

	segments, text := Format(Group(res.Entries, s.interval))
	return &Details{
		VideoID:    videoID,
		Title:      s.title(ctx, videoID, res.Title),
		Source:     res.Source,
		Transcript: segments,
		Text:       text,
	}, nil
}

// Process runs Transcript and summarizes the result. A failed summary does not
// fail the request: the transcript is returned with the error message in place
// of the summary.
func (s *Service) Process(ctx context.Context, videoURL string, langs []string) (*Report, error) {
	details, err := s.Transcript(ctx, videoURL, langs)
	if err != nil {
		return nil, err
	}

	sum := s.summarizer.Summarize(ctx, details.Text)
	if sum.Failed() {
		s.logger.Warn("service: summary failed",
			slog.String("video_id", details.VideoID),
			slog.Any("error", sum.Err))
	}
	return &Report{Details: *details, Summary: sum.Text, SummaryErr: sum.Err}, nil
}

func (s *Service) title(ctx context.Context, videoID, known string) string {
	if known != "" {
		return known
	}
	if s.titles == nil {
		return youtube.PlaceholderTitle(videoID)
	}
	title, err := s.titles.Title(ctx, videoID)
	if err != nil || title == "" {
		s.logger.Warn("service: title lookup failed",
			slog.String("video_id", videoID),
			slog.Any("error", err))
		return youtube.PlaceholderTitle(videoID)
	}
	return title
}
