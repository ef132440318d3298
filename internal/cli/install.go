package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/branding"
	"github.com/bundlekeep/bundlekeep/internal/config"
	"github.com/bundlekeep/bundlekeep/internal/metadata"
)

var installRemoveCurrent bool

func init() {
	installCmd.Flags().BoolVar(&installRemoveCurrent, "remove-current", false, "Delete the current package instead of keeping it for rollback")
	rootCmd.AddCommand(installCmd)
}

var installCmd = &cobra.Command{
	Use:   "install <hash>",
	Short: "Make a staged package current",
	Long: `Switches the current package to a staged one. The replaced package becomes
the rollback target unless --remove-current is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(config.Current())
		if err != nil {
			return err
		}

		if !m.HasPackage(args[0]) {
			return fmt.Errorf("package %s is not staged; run '%s download' first", args[0], branding.CLIName())
		}
		if err := m.Install(metadata.Some(args[0]), installRemoveCurrent); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", args[0])
		return nil
	},
}
