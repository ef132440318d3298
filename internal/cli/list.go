package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/updater"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored packages",
	Long:  `List every package folder of the application that has a package.json.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a stored package for display.
type listEntry struct {
	Hash       string `json:"hash"`
	AppVersion string `json:"appVersion"`
	Label      string `json:"label,omitempty"`
	Role       string `json:"role,omitempty"`
	Compatible bool   `json:"compatible"`
}

func runList(cmd *cobra.Command, args []string) error {
	settings := config.Current()
	m, err := newManager(settings)
	if err != nil {
		return err
	}

	status, err := m.Status()
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	records, err := m.Packages()
	if err != nil {
		return fmt.Errorf("listing packages: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages stored yet.")
		return nil
	}

	entries := buildListEntries(records, status, settings.BinaryVersion)
	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func buildListEntries(records []metadata.PackageRecord, status metadata.StatusRecord, binaryVersion string) []listEntry {
	entries := make([]listEntry, 0, len(records))
	for _, rec := range records {
		entry := listEntry{
			Hash:       rec.PackageHash,
			AppVersion: rec.AppVersion,
			Compatible: updater.IsCompatible(rec.AppVersion, binaryVersion),
		}
		if rec.Label != nil {
			entry.Label = *rec.Label
		}
		switch h := metadata.Some(rec.PackageHash); {
		case h.Equal(status.CurrentPackage):
			entry.Role = "current"
		case h.Equal(status.PreviousPackage):
			entry.Role = "previous"
		}
		entries = append(entries, entry)
	}
	return entries
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "HASH\tAPP VERSION\tLABEL\tROLE\tCOMPATIBLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", e.Hash, dash(e.AppVersion), dash(e.Label), dash(e.Role), e.Compatible)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
