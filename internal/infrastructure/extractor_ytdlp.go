package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/yourusername/tubegrab-go/internal/domain"
	"github.com/yourusername/tubegrab-go/pkg/logger"
	"go.uber.org/zap"
)

// YtDlpExtractor implements domain.Extractor on top of the yt-dlp binary
type YtDlpExtractor struct {
	config      *domain.ExtractorConfig
	eventLogger *logger.MultiLogger // raw output file and structured errors; may be nil
}

// NewYtDlpExtractor creates a new yt-dlp backed extractor
func NewYtDlpExtractor(config *domain.ExtractorConfig, eventLogger *logger.MultiLogger) *YtDlpExtractor {
	return &YtDlpExtractor{
		config:      config,
		eventLogger: eventLogger,
	}
}

// baseCommand returns the flags shared by probe and materialize
func (e *YtDlpExtractor) baseCommand() *ytdlp.Command {
	cmd := ytdlp.New().
		SetExecutable(e.config.Binary).
		NoPlaylist().
		NoWarnings().
		NoCheckCertificates().
		PreferFreeFormats()

	if e.config.Referer != "" {
		cmd.Referer(e.config.Referer)
	}
	if e.config.UserAgent != "" {
		cmd.UserAgent(e.config.UserAgent)
	}

	return cmd
}

// flagArgs renders the flags cmd will pass to yt-dlp, followed by positional
func flagArgs(cmd *ytdlp.Command, positional ...string) []string {
	var args []string
	for _, f := range cmd.GetFlagConfig().ToFlags() {
		args = append(args, f.Raw()...)
	}
	return append(args, positional...)
}

// Probe fetches metadata for url without downloading anything
func (e *YtDlpExtractor) Probe(ctx context.Context, url string) (*domain.RawVideo, error) {
	cmd := e.baseCommand().DumpSingleJSON()

	ctx, cancel := context.WithTimeout(ctx, e.config.ProbeTimeout)
	defer cancel()

	result, err := e.run(ctx, "probe", cmd, url)
	if err != nil {
		return nil, err
	}

	video, err := parseProbeOutput(result.Stdout)
	if err != nil {
		return nil, &domain.ExtractionError{Op: "probe", Message: "unreadable metadata", Err: err}
	}
	return video, nil
}

// Materialize downloads url into dir as stem.<ext>. The file keeps the local
// write time as its mtime so age-based sweeps measure time since production.
func (e *YtDlpExtractor) Materialize(ctx context.Context, url, dir, stem string, opts domain.ExtractOptions) error {
	cmd := e.baseCommand().
		NoMtime().
		Output(filepath.Join(dir, stem+".%(ext)s"))

	if opts.ExtractAudio {
		cmd.ExtractAudio().
			AudioFormat(opts.AudioFormat).
			AudioQuality(opts.AudioQuality)
	} else {
		cmd.Format(opts.Format)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.DownloadTimeout)
	defer cancel()

	_, err := e.run(ctx, "materialize", cmd, url)
	return err
}

// run executes cmd, mirroring its command line and output into the extractor log
func (e *YtDlpExtractor) run(ctx context.Context, op string, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
	rawLog := e.openRawLog()
	defer rawLog.Close()

	writeLogHeader(rawLog, op, commandLine(e.config.Binary, flagArgs(cmd, url)...))

	result, err := cmd.Run(ctx, url)
	if result != nil {
		if op != "probe" && result.Stdout != "" {
			io.WriteString(rawLog, result.Stdout)
		}
		if result.Stderr != "" {
			io.WriteString(rawLog, result.Stderr)
		}
	}

	if err != nil {
		extErr := e.classify(ctx, op, result, err)
		writeLogFooter(rawLog, false, extErr.Error())
		if e.eventLogger != nil {
			e.eventLogger.LogError(logger.CategoryExtractor, "extractor_failed",
				zap.String("op", op),
				zap.String("url", url),
				zap.Bool("timeout", extErr.Timeout),
				zap.Error(err))
		}
		return nil, extErr
	}

	writeLogFooter(rawLog, true, op+" finished")
	return result, nil
}

// classify turns a failed run into an ExtractionError
func (e *YtDlpExtractor) classify(ctx context.Context, op string, result *ytdlp.Result, err error) *domain.ExtractionError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.ExtractionError{Op: op, Message: "timed out", Timeout: true, Err: err}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return &domain.ExtractionError{Op: op, Message: "cancelled", Err: ctx.Err()}
	}

	message := "yt-dlp failed"
	if result != nil {
		if line := lastLine(result.Stderr); line != "" {
			message = line
		}
	}
	return &domain.ExtractionError{Op: op, Message: message, Err: err}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (e *YtDlpExtractor) openRawLog() io.WriteCloser {
	if e.eventLogger == nil {
		return nopWriteCloser{io.Discard}
	}
	f, err := e.eventLogger.OpenRawLog(logger.CategoryExtractor)
	if err != nil {
		e.eventLogger.LogAppError("Failed to open extractor log", zap.Error(err))
		return nopWriteCloser{io.Discard}
	}
	return f
}

// writeLogHeader writes the run start marker
func writeLogHeader(w io.Writer, op, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] %s ===\n", timestamp, op)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// writeLogFooter writes the run end marker
func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	io.WriteString(w, "=== END ===\n\n")
}

// parseProbeOutput decodes the single-JSON dump printed by --dump-single-json
func parseProbeOutput(stdout string) (*domain.RawVideo, error) {
	stdout = strings.TrimSpace(stdout)
	if stdout == "" {
		return nil, fmt.Errorf("empty output")
	}

	// the dump is the last line; anything before it is stray progress noise
	if i := strings.LastIndex(stdout, "\n{"); i >= 0 {
		stdout = stdout[i+1:]
	}

	var video domain.RawVideo
	if err := json.Unmarshal([]byte(stdout), &video); err != nil {
		return nil, err
	}
	if video.ID == "" && video.Title == "" {
		return nil, fmt.Errorf("no id or title in output")
	}
	return &video, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
