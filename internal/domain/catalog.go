package domain

import "fmt"

// CodecNone is the extractor's sentinel for a missing stream
const CodecNone = "none"

// BuildCatalog keeps formats that are playable mp4 or carry audio, preserving input order
func BuildCatalog(raw []RawFormat) []FormatOption {
	options := make([]FormatOption, 0, len(raw))
	for _, f := range raw {
		if f.Ext != "mp4" && f.ACodec == CodecNone {
			continue
		}

		size := f.Filesize
		if size == nil {
			size = f.FilesizeApprox
		}

		options = append(options, FormatOption{
			FormatID:      f.FormatID,
			Extension:     f.Ext,
			QualityLabel:  qualityLabel(f),
			FileSizeBytes: size,
			VideoCodec:    f.VCodec,
			AudioCodec:    f.ACodec,
		})
	}
	return options
}

func qualityLabel(f RawFormat) string {
	if f.Height != nil && *f.Height > 0 {
		return fmt.Sprintf("%dp", *f.Height)
	}
	return QualityAudio
}
