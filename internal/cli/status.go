package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekeep/bundlekeep/internal/config"
	"github.com/bundlekeep/bundlekeep/internal/metadata"
)

var statusJSON bool

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current and previous package",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager(config.Current())
		if err != nil {
			return err
		}

		status, err := m.Status()
		if err != nil {
			return fmt.Errorf("reading status: %w", err)
		}

		view := statusView{
			App:      m.Paths().AppName(),
			Current:  packageViewFor(m.CurrentPackage, status.CurrentPackage),
			Previous: packageViewFor(m.PreviousPackage, status.PreviousPackage),
		}
		if folder, err := m.CurrentPackageFolder(); err == nil {
			view.Folder = folder
		}

		if statusJSON {
			data, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "App:      %s\n", view.App)
		fmt.Fprintf(out, "Current:  %s\n", view.Current.describe())
		fmt.Fprintf(out, "Previous: %s\n", view.Previous.describe())
		if view.Folder != "" {
			fmt.Fprintf(out, "Folder:   %s\n", view.Folder)
		}
		return nil
	},
}

type statusView struct {
	App      string       `json:"app"`
	Current  *packageView `json:"current"`
	Previous *packageView `json:"previous"`
	Folder   string       `json:"folder,omitempty"`
}

type packageView struct {
	Hash       string  `json:"hash"`
	AppVersion string  `json:"appVersion,omitempty"`
	Label      *string `json:"label,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// packageViewFor describes the package a pointer refers to. A pointer whose
// record cannot be read is still shown, with the read error.
func packageViewFor(read func() (metadata.PackageRecord, error), hash metadata.Hash) *packageView {
	h, ok := hash.Get()
	if !ok {
		return nil
	}
	rec, err := read()
	if err != nil {
		return &packageView{Hash: h, Error: err.Error()}
	}
	return &packageView{Hash: h, AppVersion: rec.AppVersion, Label: rec.Label}
}

func (v *packageView) describe() string {
	if v == nil {
		return "none"
	}
	s := v.Hash
	if v.AppVersion != "" {
		s += " (app " + v.AppVersion + ")"
	}
	if v.Label != nil {
		s += " [" + *v.Label + "]"
	}
	if v.Error != "" {
		s += " ! " + v.Error
	}
	return s
}
