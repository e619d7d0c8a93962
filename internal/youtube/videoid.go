package youtube

import (
	"errors"
	"strings"
)

// ErrInvalidURL is returned when no video id can be found in a URL.
var ErrInvalidURL = errors.New("invalid YouTube URL")

// pathMarkers carry the id as the path segment that follows them.
var pathMarkers = []string{"youtu.be/", "/embed/", "/shorts/"}

// ExtractVideoID returns the video id from a watch URL (v= parameter) or a
// short-link / embed / shorts URL. No validation of the id itself is done.
func ExtractVideoID(url string) (string, error) {
	// Find the v= parameter
	if vIndex := strings.Index(url, "v="); vIndex != -1 {
		id := url[vIndex+2:]
		if ampIndex := strings.Index(id, "&"); ampIndex != -1 {
			id = id[:ampIndex]
		}
		if id == "" {
			return "", ErrInvalidURL
		}
		return id, nil
	}

	for _, marker := range pathMarkers {
		idx := strings.Index(url, marker)
		if idx == -1 {
			continue
		}
		id := url[idx+len(marker):]
		if end := strings.IndexAny(id, "?&#/"); end != -1 {
			id = id[:end]
		}
		if id == "" {
			return "", ErrInvalidURL
		}
		return id, nil
	}

	return "", ErrInvalidURL
}

// WatchURL builds the canonical watch page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
