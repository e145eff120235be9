package domain

import (
	"context"
	"regexp"
)

var supportedURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+$`)

// IsSupportedURL reports whether input looks like a URL on a supported video host
func IsSupportedURL(input string) bool {
	return supportedURLPattern.MatchString(input)
}

// RawFormat is one format descriptor as reported by the extractor
type RawFormat struct {
	FormatID       string `json:"format_id"`
	Ext            string `json:"ext"`
	Height         *int   `json:"height"`
	Filesize       *int64 `json:"filesize"`
	FilesizeApprox *int64 `json:"filesize_approx"`
	VCodec         string `json:"vcodec"`
	ACodec         string `json:"acodec"`
	FormatNote     string `json:"format_note"`
}

// RawVideo is the subset of the extractor's single-JSON dump we rely on
type RawVideo struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Channel   string      `json:"channel"`
	Uploader  string      `json:"uploader"`
	Duration  *float64    `json:"duration"`
	ViewCount *int64      `json:"view_count"`
	Thumbnail string      `json:"thumbnail"`
	Formats   []RawFormat `json:"formats"`
}

// ChannelName prefers the channel field and falls back to the uploader
func (v *RawVideo) ChannelName() string {
	if v.Channel != "" {
		return v.Channel
	}
	return v.Uploader
}

// FormatOption is one user-selectable quality/format
type FormatOption struct {
	FormatID      string `json:"format_id"`
	Extension     string `json:"ext"`
	QualityLabel  string `json:"quality"`
	FileSizeBytes *int64 `json:"filesize,omitempty"`
	VideoCodec    string `json:"vcodec,omitempty"`
	AudioCodec    string `json:"acodec,omitempty"`
}

// VideoMetadata is the result of an Analyze call
type VideoMetadata struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Channel         string         `json:"channel"`
	DurationSeconds *int64         `json:"duration_seconds,omitempty"`
	ViewCount       *int64         `json:"view_count,omitempty"`
	ThumbnailURL    string         `json:"thumbnail"`
	Formats         []FormatOption `json:"formats"`
}

// NewVideoMetadata converts a probe result into user-facing metadata
func NewVideoMetadata(raw *RawVideo) *VideoMetadata {
	meta := &VideoMetadata{
		ID:           raw.ID,
		Title:        raw.Title,
		Channel:      raw.ChannelName(),
		ViewCount:    raw.ViewCount,
		ThumbnailURL: raw.Thumbnail,
		Formats:      BuildCatalog(raw.Formats),
	}
	if raw.Duration != nil && *raw.Duration >= 0 {
		secs := int64(*raw.Duration)
		meta.DurationSeconds = &secs
	}
	return meta
}

// Extractor is the black-box media extraction collaborator
type Extractor interface {
	// Probe fetches metadata for url without producing a file
	Probe(ctx context.Context, url string) (*RawVideo, error)

	// Materialize writes a media file named stem.<ext> into dir
	Materialize(ctx context.Context, url, dir, stem string, opts ExtractOptions) error
}
