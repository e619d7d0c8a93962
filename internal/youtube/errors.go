package youtube

import (
	"errors"
	"fmt"
)

// Signals reported by the caption endpoints. Callers classify with errors.Is.
var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrNoTranscriptFound   = errors.New("no transcript found for the requested languages")
	ErrVideoUnavailable    = errors.New("video is unavailable")
	ErrAgeRestricted       = errors.New("video is age restricted")
	ErrPrivate             = errors.New("video is private")
	ErrRequestBlocked      = errors.New("request blocked by YouTube")
	ErrTooManyRequests     = errors.New("too many requests")
)

// ParseError reports a caption payload that could not be decoded. YouTube
// answers blocked clients with empty or HTML bodies, so this usually means
// the request was blocked rather than that the data was malformed.
type ParseError struct {
	VideoID string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse caption payload for %s: %v", e.VideoID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusError is a non-200 answer from a YouTube endpoint.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}
