package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// QualityAudio selects the audio-extraction branch instead of a video format
const QualityAudio = "audio"

var heightPattern = regexp.MustCompile(`\d+`)

// DownloadRequest is the client's request for one (url, quality, format) tuple
type DownloadRequest struct {
	URL      string
	Quality  string
	FormatID string
}

// ExtractOptions configures a materialize call; exactly one of ExtractAudio or Format is active
type ExtractOptions struct {
	ExtractAudio bool
	AudioFormat  string
	AudioQuality string
	Format       string
}

// Validate checks the request before anything is handed to the extractor
func (r DownloadRequest) Validate() error {
	if !IsSupportedURL(r.URL) {
		return &ValidationError{Field: "url", Message: "unsupported video URL"}
	}
	if r.Quality == "" {
		return &ValidationError{Field: "quality", Message: "quality is required"}
	}
	if r.Quality != QualityAudio && r.FormatID == "" {
		if _, err := HeightFromQuality(r.Quality); err != nil {
			return &ValidationError{Field: "quality", Message: err.Error()}
		}
	}
	return nil
}

// ExtractOptions builds the materialize options for the request
func (r DownloadRequest) ExtractOptions(audioFormat, audioQuality string) (ExtractOptions, error) {
	if r.Quality == QualityAudio {
		return ExtractOptions{
			ExtractAudio: true,
			AudioFormat:  audioFormat,
			AudioQuality: audioQuality,
		}, nil
	}
	if r.FormatID != "" {
		return ExtractOptions{Format: r.FormatID}, nil
	}
	height, err := HeightFromQuality(r.Quality)
	if err != nil {
		return ExtractOptions{}, &ValidationError{Field: "quality", Message: err.Error()}
	}
	return ExtractOptions{Format: HeightSelector(height)}, nil
}

// HeightFromQuality returns the numeric portion of a quality label such as "720p"
func HeightFromQuality(quality string) (int, error) {
	digits := heightPattern.FindString(quality)
	if digits == "" {
		return 0, fmt.Errorf("no resolution in quality %q", quality)
	}
	height, err := strconv.Atoi(digits)
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("bad resolution in quality %q", quality)
	}
	return height, nil
}

// HeightSelector returns the fallback format expression for a maximum vertical resolution
func HeightSelector(height int) string {
	return fmt.Sprintf("best[height<=%d]", height)
}
