package updater

import (
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// Unpack extracts archivePath and renames its top-level entry to
// <destinationDir>/unzipped.
//
// An archive is expected to hold exactly one top-level entry. When it holds
// several, the first in directory-listing order wins and the rest are
// discarded.
func (m *Manager) Unpack(archivePath, destinationDir string) error {
	if err := m.unpack(archivePath, destinationDir); err != nil {
		return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
	}
	return nil
}

func (m *Manager) unpack(archivePath, destinationDir string) error {
	staging := filepath.Join(destinationDir, paths.ExtractFolder)
	if err := platform.Remove(staging); err != nil {
		return err
	}
	defer func() {
		if err := platform.Remove(staging); err != nil {
			log.Warnf("failed to remove extraction folder: %v", err)
		}
	}()

	if err := m.extractor.ExtractAll(archivePath, staging); err != nil {
		return err
	}

	names, err := platform.ListDir(staging)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("archive has no entries")
	}
	if len(names) > 1 {
		log.Warnf("archive has %d top-level entries, using %q", len(names), names[0])
	}

	unzipped := filepath.Join(destinationDir, paths.UnzippedFolder)
	if err := platform.Remove(unzipped); err != nil {
		return err
	}
	return platform.Rename(filepath.Join(staging, names[0]), unzipped)
}
