package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bundlekeep/bundlekeep/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyDocumentsDir    = "documents_dir"
	KeyAppName         = "app_name"
	KeyMirror          = "mirror"
	KeyDownloadTimeout = "download_timeout"
	KeyDownloadRetries = "download_retries"
	KeyCopyWorkers     = "copy_workers"
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyBinaryVersion   = "binary_version"
)

// Settings is the typed view of the configuration.
type Settings struct {
	DocumentsDir    string
	AppName         string
	Mirror          string
	DownloadTimeout time.Duration
	DownloadRetries int
	CopyWorkers     int
	LogLevel        string
	LogFile         string
	BinaryVersion   string
}

var knownKeys = []string{
	KeyDocumentsDir,
	KeyAppName,
	KeyMirror,
	KeyDownloadTimeout,
	KeyDownloadRetries,
	KeyCopyWorkers,
	KeyLogLevel,
	KeyLogFile,
	KeyBinaryVersion,
}

// IsKnownKey reports whether key is one of the configuration keys above.
func IsKnownKey(key string) bool {
	return slices.Contains(knownKeys, key)
}

// Dir returns the path to the config directory (~/.bundlekeep/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.bundlekeep/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyDocumentsDir, filepath.Join(Dir(), "documents"))
	viper.SetDefault(KeyDownloadTimeout, "5m")
	viper.SetDefault(KeyDownloadRetries, 3)
	viper.SetDefault(KeyCopyWorkers, 4)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFile, "console")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the loaded settings. Load must be called first.
func Current() Settings {
	return Settings{
		DocumentsDir:    viper.GetString(KeyDocumentsDir),
		AppName:         viper.GetString(KeyAppName),
		Mirror:          viper.GetString(KeyMirror),
		DownloadTimeout: viper.GetDuration(KeyDownloadTimeout),
		DownloadRetries: viper.GetInt(KeyDownloadRetries),
		CopyWorkers:     viper.GetInt(KeyCopyWorkers),
		LogLevel:        viper.GetString(KeyLogLevel),
		LogFile:         viper.GetString(KeyLogFile),
		BinaryVersion:   viper.GetString(KeyBinaryVersion),
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
