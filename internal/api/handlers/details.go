package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"jamesfarrell.me/youtube-summary/internal/api/middleware"
	"jamesfarrell.me/youtube-summary/internal/transcription"
	"jamesfarrell.me/youtube-summary/internal/youtube"
)

const statusMessage = "YouTube Summary API is working!"

// VideoService is satisfied by *transcription.Service.
type VideoService interface {
	Process(ctx context.Context, videoURL string, langs []string) (*transcription.Report, error)
}

type DetailsHandler struct {
	svc    VideoService
	logger *slog.Logger
}

func NewDetailsHandler(svc VideoService, logger *slog.Logger) *DetailsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailsHandler{svc: svc, logger: logger}
}

type detailsRequest struct {
	VideoURL  string   `json:"video_url"`
	Languages []string `json:"languages,omitempty"`
}

type detailsResponse struct {
	Title      string                           `json:"title"`
	Transcript []transcription.FormattedSegment `json:"transcript"`
	Summary    string                           `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Status answers GET with a liveness message.
func (h *DetailsHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": statusMessage})
}

// Options answers a plain OPTIONS request. CORS preflights are handled by the
// router before they get here.
func (h *DetailsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, POST, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
}

// GetDetails fetches, groups and summarizes the transcript of video_url.
func (h *DetailsHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	var req detailsRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if req.VideoURL == "" {
		writeError(w, http.StatusBadRequest, "No video URL provided")
		return
	}

	report, err := h.svc.Process(r.Context(), req.VideoURL, req.Languages)
	if err != nil {
		status, msg := errorStatus(err)
		h.logger.Warn("api: request failed",
			slog.String("request_id", middleware.RequestID(r.Context())),
			slog.String("video_url", req.VideoURL),
			slog.Int("status", status),
			slog.Any("error", err))
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, detailsResponse{
		Title:      report.Title,
		Transcript: report.Transcript,
		Summary:    report.Summary,
	})
}

// errorStatus maps pipeline errors to an HTTP status and a user-facing message.
func errorStatus(err error) (int, string) {
	if errors.Is(err, youtube.ErrInvalidURL) {
		return http.StatusBadRequest, "Invalid YouTube URL"
	}
	var fe *transcription.FetchError
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
	switch fe.Kind {
	case transcription.KindNoCaptions, transcription.KindVideoUnavailable:
		return http.StatusNotFound, fe.Kind.Message()
	case transcription.KindPrivate, transcription.KindAgeRestricted:
		return http.StatusForbidden, fe.Kind.Message()
	case transcription.KindAccessBlocked:
		return http.StatusServiceUnavailable, fe.Kind.Message()
	case transcription.KindRateLimited:
		return http.StatusTooManyRequests, fe.Kind.Message()
	default:
		return http.StatusBadGateway, fe.Kind.Message()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
