package cli

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bundlekeep/bundlekeep/internal/branding"
	"github.com/bundlekeep/bundlekeep/internal/config"
	"github.com/bundlekeep/bundlekeep/internal/fetch"
	"github.com/bundlekeep/bundlekeep/internal/logging"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Global flags, bound to the matching config keys.
var globalFlags = map[string]string{
	"app":           config.KeyAppName,
	"documents-dir": config.KeyDocumentsDir,
	"log-level":     config.KeyLogLevel,
}

func init() {
	// Assigned here rather than in the literal: setup refers to rootCmd.
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().String("app", "", "Application whose packages are managed (config: app_name)")
	rootCmd.PersistentFlags().String("documents-dir", "", "Root directory of the package store (config: documents_dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (config: log_level)")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps a versioned store of downloadable application packages.
It downloads and unpacks packages, merges diff updates against the current
package, and switches or rolls back the current package atomically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// setup loads configuration, applies flag overrides and configures logging.
func setup(cmd *cobra.Command, args []string) error {
	config.Load()

	for name, key := range globalFlags {
		flag := rootCmd.PersistentFlags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		viper.Set(key, flag.Value.String())
	}

	settings := config.Current()
	if err := logging.InitLog(settings.LogLevel, settings.LogFile); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	return nil
}

// newManager builds the package manager for the configured application.
func newManager(s config.Settings) (*updater.Manager, error) {
	if s.AppName == "" {
		return nil, fmt.Errorf("%w: pass --app or set %s", paths.ErrAppNameUnset, branding.EnvVar(config.KeyAppName))
	}
	if err := paths.ValidateAppName(s.AppName); err != nil {
		return nil, err
	}

	fetcher := fetch.New(
		fetch.WithMirror(s.Mirror),
		fetch.WithRetries(s.DownloadRetries),
		fetch.WithProgress(os.Stderr),
	)

	log.WithFields(log.Fields{"app": s.AppName, "documents": s.DocumentsDir}).Debug("opening package store")
	return updater.New(
		paths.New(s.DocumentsDir, s.AppName),
		updater.WithFetcher(fetcher),
		updater.WithCopyWorkers(s.CopyWorkers),
	), nil
}

// commandContext bounds long-running commands by the download timeout.
func commandContext(cmd *cobra.Command, s config.Settings) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if s.DownloadTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.DownloadTimeout)
}

// Execute runs the root command with build info injected via ldflags.
func Execute(ctx context.Context, version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
