package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

var (
	ErrMissingCredential = errors.New("summary API key is not configured")
	ErrAuthentication    = errors.New("authentication with the summary API failed")
	ErrSummaryFailed     = errors.New("summary generation failed")
)

const errorPrefix = "Error generating summary: "

// Config holds the completion API settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
	HTTPClient   *http.Client
}

// Result always carries text: the summary, or a readable error message
// when Err is set.
type Result struct {
	Text string
	Err  error
}

func (r Result) Failed() bool { return r.Err != nil }

// Summarizer sends transcripts to an OpenAI-compatible chat completion API.
type Summarizer struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

// New builds a Summarizer. A missing API key is reported by Summarize.
func New(cfg Config) *Summarizer {
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}

	s := &Summarizer{cfg: cfg, logger: slog.Default()}
	if cfg.APIKey == "" {
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	} else {
		clientCfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Summarize makes a single completion request. It never returns an error
// value on its own; failures are folded into the Result.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) Result {
	if s.client == nil {
		return failure(ErrMissingCredential, "the summary API key is not configured (set DEEPSEEK_API_KEY)")
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage(transcript)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		s.logger.Error("summary: completion failed", slog.Any("error", err))
		if isAuthError(err) {
			return failure(fmt.Errorf("%w: %w", ErrAuthentication, err),
				"authentication with the summary API failed, check DEEPSEEK_API_KEY")
		}
		return failure(fmt.Errorf("%w: %w", ErrSummaryFailed, err), truncate(err.Error(), 300))
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return failure(fmt.Errorf("%w: empty response", ErrSummaryFailed), "the summary API returned an empty response")
	}
	return Result{Text: resp.Choices[0].Message.Content}
}

func failure(err error, msg string) Result {
	return Result{Text: errorPrefix + msg, Err: err}
}

func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
