// Package app wires the configured components into a transcription.Service.
package app

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v5"

	"jamesfarrell.me/youtube-summary/internal/config"
	"jamesfarrell.me/youtube-summary/internal/summary"
	"jamesfarrell.me/youtube-summary/internal/transcription"
	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// App holds the service and whatever must be released on shutdown.
type App struct {
	Service *transcription.Service
	closers []func() error
}

// New builds the pipeline from cfg. Optional components (Redis cache, title
// lookup) that fail to initialise are logged and left out.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) *App {
	a := &App{}

	fetchOpts := []transcription.FetcherOption{
		transcription.WithAttempts(cfg.FetchAttempts),
		transcription.WithAttemptTimeout(cfg.FetchAttemptTimeout),
		transcription.WithBackoff(func() backoff.BackOff {
			return backoff.NewConstantBackOff(cfg.FetchBackoff)
		}),
		transcription.WithLogger(logger),
	}
	if cfg.YtDlpPath != "" {
		fetchOpts = append(fetchOpts, transcription.WithExtractor(transcription.NewYtDlp(cfg.YtDlpPath, nil, cfg.YtDlpTimeout)))
	}
	if cfg.RedisURL != "" {
		cache, err := transcription.NewRedisCache(ctx, cfg.RedisURL, cfg.CaptionCacheTTL)
		if err != nil {
			logger.Warn("app: caption cache disabled", slog.Any("error", err))
		} else {
			fetchOpts = append(fetchOpts, transcription.WithCache(cache))
			a.closers = append(a.closers, cache.Close)
		}
	}
	fetcher := transcription.NewFetcher(youtube.NewClient(), fetchOpts...)

	summarizer := summary.New(summary.Config{
		APIKey:      cfg.SummaryAPIKey,
		BaseURL:     cfg.SummaryBaseURL,
		Model:       cfg.SummaryModel,
		Temperature: cfg.SummaryTemperature,
		MaxTokens:   cfg.SummaryMaxTokens,
	})
	if cfg.SummaryAPIKey == "" {
		logger.Warn("app: DEEPSEEK_API_KEY not set, summaries will report a missing key")
	}

	svcOpts := []transcription.ServiceOption{
		transcription.WithInterval(cfg.GroupInterval.Seconds()),
		transcription.WithServiceLogger(logger),
	}
	if cfg.GoogleAPIKey != "" {
		titles, err := youtube.NewTitleLookup(ctx, cfg.GoogleAPIKey)
		if err != nil {
			logger.Warn("app: title lookup disabled", slog.Any("error", err))
		} else {
			svcOpts = append(svcOpts, transcription.WithTitleResolver(titles))
		}
	}

	a.Service = transcription.NewService(fetcher, summarizer, svcOpts...)
	return a
}

// Close releases external connections.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}
