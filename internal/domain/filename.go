package domain

import (
	"regexp"
	"strings"
)

// AudioExtension is the container produced by the audio-extraction branch
const AudioExtension = ".mp3"

var (
	unsafeChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// partial files yt-dlp leaves behind while writing or merging
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Sanitize strips every character that is not a word character, whitespace or hyphen and trims the result.
func Sanitize(title string) string {
	return strings.TrimSpace(unsafeChars.ReplaceAllString(title, ""))
}

// SafeBaseName sanitizes title, falling back to the video id and then to "video"
func SafeBaseName(title, id string) string {
	if name := Sanitize(title); name != "" {
		return name
	}
	if name := Sanitize(id); name != "" {
		return name
	}
	return "video"
}

// SanitizeQuality makes a client supplied quality label safe to embed in a filename
func SanitizeQuality(quality string) string {
	return whitespace.ReplaceAllString(Sanitize(quality), "")
}

// ComposeBaseName joins the safe title and quality
func ComposeBaseName(safeBaseName, quality string) string {
	return safeBaseName + "_" + quality
}

// JobStem appends the per-job token to a base name
func JobStem(baseName, token string) string {
	return baseName + "-" + token
}

// IsPartialFile reports whether name is an in-progress extractor artifact
func IsPartialFile(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// MatchesStem reports whether name is stem followed by an extension
func MatchesStem(name, stem string) bool {
	return strings.HasPrefix(name, stem+".") && !IsPartialFile(name)
}

// MatchesFuzzy is the containment match used when the extractor rewrote the requested name
func MatchesFuzzy(name, safeBaseName, quality string) bool {
	if IsPartialFile(name) || !strings.Contains(name, safeBaseName) {
		return false
	}
	return strings.Contains(name, quality) || strings.HasSuffix(name, AudioExtension)
}
