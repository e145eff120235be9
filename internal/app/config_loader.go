package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yourusername/tubegrab-go/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g. TUBEGRAB_SERVER_PORT
const EnvPrefix = "TUBEGRAB"

// LoadConfig loads configuration from file and environment.
// A .env file in the working directory is read first; real environment variables win over it.
func LoadConfig(configPath string) (*domain.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.tubegrab")
		v.AddConfigPath("/etc/tubegrab")
	}

	// Defaults must be registered key by key for AutomaticEnv to apply on Unmarshal
	for key, value := range configMap(domain.DefaultConfig()) {
		v.SetDefault(key, value)
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configMap flattens config into viper keys
func configMap(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host": config.Server.Host,
		"server.port": config.Server.Port,

		"download.dir":               config.Download.Dir,
		"download.grace_period":      config.Download.GracePeriod.String(),
		"download.check_interval":    config.Download.CheckInterval.String(),
		"download.max_file_age":      config.Download.MaxFileAge.String(),
		"download.sweep_interval":    config.Download.SweepInterval.String(),
		"download.drain_on_shutdown": config.Download.DrainOnShutdown,
		"download.audio_format":      config.Download.AudioFormat,
		"download.audio_quality":     config.Download.AudioQuality,

		"extractor.binary":           config.Extractor.Binary,
		"extractor.probe_timeout":    config.Extractor.ProbeTimeout.String(),
		"extractor.download_timeout": config.Extractor.DownloadTimeout.String(),
		"extractor.referer":          config.Extractor.Referer,
		"extractor.user_agent":       config.Extractor.UserAgent,

		"ledger.dsn":         config.Ledger.DSN,
		"ledger.max_entries": config.Ledger.MaxEntries,

		"notification.enabled": config.Notification.Enabled,
		"notification.sound":   config.Notification.Sound,
		"notification.method":  config.Notification.Method,

		"logging.level":       config.Logging.Level,
		"logging.format":      config.Logging.Format,
		"logging.output_path": config.Logging.OutputPath,
		"logging.logs_dir":    config.Logging.LogsDir,
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.Dir = expandPath(config.Download.Dir)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Expand environment variables, $HOME included
	path = os.ExpandEnv(path)

	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.Dir == "" {
		return fmt.Errorf("download directory not configured")
	}

	if config.Download.GracePeriod < 0 {
		return fmt.Errorf("grace period cannot be negative")
	}

	if config.Download.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive")
	}

	if config.Download.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive")
	}

	if config.Download.MaxFileAge <= config.Download.GracePeriod {
		return fmt.Errorf("max file age must exceed the grace period")
	}

	if config.Extractor.Binary == "" {
		return fmt.Errorf("extractor binary not configured")
	}

	if config.Extractor.ProbeTimeout <= 0 || config.Extractor.DownloadTimeout <= 0 {
		return fmt.Errorf("extractor timeouts must be positive")
	}

	if config.Ledger.DSN == "" {
		return fmt.Errorf("ledger dsn not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	if config.Logging.LogsDir == "" {
		config.Logging.LogsDir = "./logs"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configMap(config) {
		v.Set(key, value)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
