package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/updater"
)

var (
	downloadAppVersion string
	downloadLabel      string
	downloadEntryPoint string
	downloadInstall    bool
)

func init() {
	downloadCmd.Flags().StringVar(&downloadAppVersion, "app-version", "", "Host binary version the package targets (default: config binary_version)")
	downloadCmd.Flags().StringVar(&downloadLabel, "label", "", "Free-form release label")
	downloadCmd.Flags().StringVar(&downloadEntryPoint, "entry-point", "main.jsbundle", "File the host loads from the package")
	downloadCmd.Flags().BoolVar(&downloadInstall, "install", false, "Install the package once staged")
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <hash> <url>",
	Short: "Download and stage a package",
	Long: `Downloads a package, unpacks it if it is an archive, merges a diff update
against the current package and writes its package.json. The current package
is not changed unless --install is given.

  bundlekeep download 3f2a https://cdn.example.com/3f2a.zip --app-version 1.4.0
  bundlekeep download 3f2a https://cdn.example.com/3f2a.zip --install`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Current()
		m, err := newManager(settings)
		if err != nil {
			return err
		}

		rec := metadata.PackageRecord{
			PackageHash: args[0],
			AppVersion:  downloadAppVersion,
		}
		if rec.AppVersion == "" {
			rec.AppVersion = settings.BinaryVersion
		}
		if cmd.Flags().Changed("label") {
			rec.Label = &downloadLabel
		}

		ctx, cancel := commandContext(cmd, settings)
		defer cancel()

		staged, err := m.Stage(ctx, updater.StageRequest{
			Record:     rec,
			URL:        args[1],
			EntryPoint: downloadEntryPoint,
		})
		if err != nil {
			return fmt.Errorf("staging %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Staged %s\n  entry point: %s\n", args[0], staged.EntryPointPath)

		if !downloadInstall {
			return nil
		}
		if err := m.Install(metadata.Some(args[0]), false); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", args[0])
		return nil
	},
}
