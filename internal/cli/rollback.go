package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
)

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Delete the current package and restore the previous one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(config.Current())
		if err != nil {
			return err
		}

		if err := m.Rollback(); err != nil {
			return err
		}

		current, err := m.CurrentPackageHash()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back; current package: %s\n", current)
		return nil
	},
}
