package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Extractor    ExtractorConfig    `mapstructure:"extractor"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains settings for the shared output directory and the reaper
type DownloadConfig struct {
	Dir             string        `mapstructure:"dir"`
	GracePeriod     time.Duration `mapstructure:"grace_period"`   // delay between a served file and its deletion
	CheckInterval   time.Duration `mapstructure:"check_interval"` // reaper tick
	MaxFileAge      time.Duration `mapstructure:"max_file_age"`   // files never fetched are swept after this
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	DrainOnShutdown bool          `mapstructure:"drain_on_shutdown"`
	AudioFormat     string        `mapstructure:"audio_format"`
	AudioQuality    string        `mapstructure:"audio_quality"`
}

// ExtractorConfig contains yt-dlp specific configuration
type ExtractorConfig struct {
	Binary          string        `mapstructure:"binary"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	Referer         string        `mapstructure:"referer"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// LedgerConfig contains settings for the in-memory job ledger
type LedgerConfig struct {
	DSN        string `mapstructure:"dsn"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorized log files
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 3000,
		},
		Download: DownloadConfig{
			Dir:             "./downloads",
			GracePeriod:     5 * time.Second,
			CheckInterval:   time.Second,
			MaxFileAge:      time.Hour,
			SweepInterval:   5 * time.Minute,
			DrainOnShutdown: true,
			AudioFormat:     "mp3",
			AudioQuality:    "192K",
		},
		Extractor: ExtractorConfig{
			Binary:          "yt-dlp",
			ProbeTimeout:    60 * time.Second,
			DownloadTimeout: 30 * time.Minute,
			Referer:         "youtube.com",
			UserAgent:       "googlebot",
		},
		Ledger: LedgerConfig{
			DSN:        "file:tubegrab?mode=memory&cache=shared",
			MaxEntries: 500,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			LogsDir:    "./logs",
		},
	}
}
