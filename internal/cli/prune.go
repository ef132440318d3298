package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
)

func init() {
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete package folders that are neither current nor previous",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(config.Current())
		if err != nil {
			return err
		}

		removed, err := m.Prune()
		for _, hash := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", hash)
		}
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune.")
		}
		return nil
	},
}
