package updater

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// Prune deletes package folders referenced by neither the current nor the
// previous pointer, such as the leftovers of failed stages. It returns the
// removed hashes. Every folder is attempted; failures are aggregated.
func (m *Manager) Prune() ([]string, error) {
	status, err := m.status.Read()
	if err != nil {
		return nil, err
	}

	root, err := m.paths.AppRoot()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	keep := map[string]bool{}
	if h, ok := status.CurrentPackage.Get(); ok {
		keep[h] = true
	}
	if h, ok := status.PreviousPackage.Get(); ok {
		keep[h] = true
	}

	var (
		removed []string
		merr    *multierror.Error
	)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || keep[name] || paths.ValidateHash(name) != nil {
			continue
		}
		if err := platform.Remove(filepath.Join(root, name)); err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		log.WithField("hash", name).Info("pruned orphaned package folder")
		removed = append(removed, name)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return removed, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return removed, nil
}

// Clear removes every package and the status record of the application.
func (m *Manager) Clear() error {
	root, err := m.paths.AppRoot()
	if err != nil {
		return err
	}
	if err := platform.Remove(root); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	log.WithField("app", m.paths.AppName()).Info("cleared all packages")
	return nil
}
