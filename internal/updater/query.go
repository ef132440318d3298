package updater

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// Status returns the current status record.
func (m *Manager) Status() (metadata.StatusRecord, error) {
	return m.status.Read()
}

// CurrentPackageHash returns the hash of the current package, if any.
func (m *Manager) CurrentPackageHash() (metadata.Hash, error) {
	status, err := m.status.Read()
	if err != nil {
		return metadata.None(), err
	}
	return status.CurrentPackage, nil
}

// CurrentPackage returns the record of the current package.
func (m *Manager) CurrentPackage() (metadata.PackageRecord, error) {
	status, err := m.status.Read()
	if err != nil {
		return metadata.PackageRecord{}, err
	}
	return m.readPointer(status.CurrentPackage, "current")
}

// PreviousPackage returns the record of the rollback target.
func (m *Manager) PreviousPackage() (metadata.PackageRecord, error) {
	status, err := m.status.Read()
	if err != nil {
		return metadata.PackageRecord{}, err
	}
	return m.readPointer(status.PreviousPackage, "previous")
}

func (m *Manager) readPointer(h metadata.Hash, which string) (metadata.PackageRecord, error) {
	hash, ok := h.Get()
	if !ok {
		return metadata.PackageRecord{}, fmt.Errorf("%w: no %s package", ErrPackageNotFound, which)
	}
	return m.packages.Read(hash)
}

// CurrentPackageFolder returns <appRoot>/<current>/<appName>.
func (m *Manager) CurrentPackageFolder() (string, error) {
	hash, err := m.CurrentPackageHash()
	if err != nil {
		return "", err
	}
	h, ok := hash.Get()
	if !ok {
		return "", fmt.Errorf("%w: no current package", ErrPackageNotFound)
	}
	return m.paths.PackageContentPath(h)
}

// Packages returns the records of every package folder that has one.
// Folders without a readable record are skipped.
func (m *Manager) Packages() ([]metadata.PackageRecord, error) {
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

	var records []metadata.PackageRecord
	for _, entry := range entries {
		if !entry.IsDir() || paths.ValidateHash(entry.Name()) != nil {
			continue
		}
		rec, err := m.packages.Read(entry.Name())
		if err != nil {
			log.WithField("hash", entry.Name()).Debugf("skipping package folder: %v", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// HasPackage reports whether a folder exists for hash.
func (m *Manager) HasPackage(hash string) bool {
	folder, err := m.paths.PackageFolderPath(hash)
	if err != nil {
		return false
	}
	return platform.Exists(folder)
}
