package transcription

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"jamesfarrell.me/youtube-summary/internal/youtube"
)

// Kind classifies why no transcript could be fetched.
type Kind string

const (
	KindNoCaptions       Kind = "no-captions"
	KindAccessBlocked    Kind = "access-blocked"
	KindRateLimited      Kind = "rate-limited"
	KindVideoUnavailable Kind = "video-unavailable"
	KindAgeRestricted    Kind = "age-restricted"
	KindPrivate          Kind = "private"
	KindUnknown          Kind = "unknown"
	KindExtractionFailed Kind = "subtitle-extraction-failed"
)

// ErrEmptyTranscript is recorded when a strategy succeeds with zero entries.
var ErrEmptyTranscript = errors.New("transcript has no entries")

var messages = map[Kind]string{
	KindNoCaptions:       "This video does not have subtitles/captions available. Please try another video with subtitles enabled.",
	KindAccessBlocked:    "YouTube is temporarily blocking transcript requests from this server. Please try again in a few minutes.",
	KindRateLimited:      "Too many requests were sent to YouTube. Please wait a moment and try again.",
	KindVideoUnavailable: "This video is unavailable. It may have been deleted or be blocked in this region.",
	KindAgeRestricted:    "This video is age restricted, so its transcript cannot be fetched. Please try a different video.",
	KindPrivate:          "This video is private. Please try a public video.",
	KindUnknown:          "Could not fetch the transcript (rate limited or unknown error). Please try again later.",
	KindExtractionFailed: "Subtitles could not be extracted for this video. Please check that it has subtitles and try again.",
}

// Message is the user-facing explanation of a Kind.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[KindUnknown]
}

// usesFallback reports whether the primary caption API looked blocked or broken
// rather than the video itself lacking captions.
func (k Kind) usesFallback() bool {
	return k == KindAccessBlocked || k == KindRateLimited || k == KindUnknown
}

// Failure is one swallowed strategy error.
type Failure struct {
	Attempt  int
	Strategy string
	Err      error
}

// FetchError is returned once every strategy and retry is exhausted.
type FetchError struct {
	Kind     Kind
	VideoID  string
	Failures []Failure
	// Primary is the classification of the caption API failures when Kind
	// comes from the fallback extractor.
	Primary Kind
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("transcript %s: %s", e.VideoID, e.Kind)
	if e.Primary != "" {
		msg += fmt.Sprintf(" (caption api: %s)", e.Primary)
	}
	if n := len(e.Failures); n > 0 {
		msg += ": " + truncate(e.Failures[n-1].Err.Error(), 200)
	}
	return msg
}

// Unwrap exposes the recorded strategy errors to errors.Is and errors.As.
func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// KindOf returns the Kind of a fetch error, or KindUnknown.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Classify inspects accumulated failures, strongest signal first.
func Classify(failures []Failure) Kind {
	has := func(target error) bool {
		for _, f := range failures {
			if errors.Is(f.Err, target) {
				return true
			}
		}
		return false
	}
	hasParseError := func() bool {
		for _, f := range failures {
			var perr *youtube.ParseError
			if errors.As(f.Err, &perr) {
				return true
			}
		}
		return false
	}

	switch {
	case hasParseError(), has(youtube.ErrRequestBlocked):
		return KindAccessBlocked
	case has(youtube.ErrTooManyRequests):
		return KindRateLimited
	case has(youtube.ErrPrivate):
		return KindPrivate
	case has(youtube.ErrAgeRestricted):
		return KindAgeRestricted
	case has(youtube.ErrVideoUnavailable):
		return KindVideoUnavailable
	case len(failures) == 0,
		has(youtube.ErrTranscriptsDisabled),
		has(youtube.ErrNoTranscriptFound),
		has(ErrEmptyTranscript):
		return KindNoCaptions
	default:
		return KindUnknown
	}
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
