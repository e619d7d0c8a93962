package youtube

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// UnknownTitle is returned when the Data API knows no video with the id.
const UnknownTitle = "Unknown Title"

// PlaceholderTitle is used when no title lookup is configured.
func PlaceholderTitle(videoID string) string {
	return "YouTube Video " + videoID
}

// TitleLookup resolves video titles through the YouTube Data API v3.
type TitleLookup struct {
	svc *ytapi.Service
}

// NewTitleLookup builds a lookup authenticated with an API key. Extra options
// are appended after the key (endpoint overrides in tests).
func NewTitleLookup(ctx context.Context, apiKey string, opts ...option.ClientOption) (*TitleLookup, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube data api: %w", err)
	}
	return &TitleLookup{svc: svc}, nil
}

// Title returns the snippet title of a video, or UnknownTitle when the API
// returns no items.
func (l *TitleLookup) Title(ctx context.Context, videoID string) (string, error) {
	resp, err := l.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return UnknownTitle, nil
	}
	return resp.Items[0].Snippet.Title, nil
}
