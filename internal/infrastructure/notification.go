package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/tubegrab-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending desktop notifications for finished jobs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptQuote(message), appleScriptQuote(title))
		if n.config.Sound {
			script += ` sound name "default"`
		}
		err = n.run("osascript", "-e", script)
	case "notify-send":
		err = n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyJobCompleted sends notification when a download job produced its file
func (n *NotificationService) NotifyJobCompleted(job *domain.DownloadJob) {
	title := "Download Completed"
	message := fmt.Sprintf("Ready: %s (%s)", truncateString(job.Filename, 40), job.RequestedQuality)
	n.Send(title, message)
}

// NotifyJobFailed sends notification when a download job fails
func (n *NotificationService) NotifyJobFailed(job *domain.DownloadJob) {
	title := "Download Failed"
	message := fmt.Sprintf("Failed at %s: %s", job.FailedStage, truncateString(job.SourceURL, 40))
	n.Send(title, message)
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
