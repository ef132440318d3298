package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
)

var clearYes bool

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Confirm deletion of every package")
	rootCmd.AddCommand(clearCmd)
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every package and the status record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("refusing to delete all packages without --yes")
		}

		m, err := newManager(config.Current())
		if err != nil {
			return err
		}
		if err := m.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared all packages of %s\n", m.Paths().AppName())
		return nil
	},
}
