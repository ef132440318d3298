package updater

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// Install makes hash the current package.
//
// Installing the hash that is already current is a no-op. With removeCurrent
// the current package folder is deleted and the previous pointer is left
// alone; otherwise the old previous folder is deleted (unless it is the one
// being installed) and the current package becomes the previous one. The
// status record is written last, after every deletion.
func (m *Manager) Install(hash metadata.Hash, removeCurrent bool) error {
	if err := m.install(hash, removeCurrent); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}
	return nil
}

func (m *Manager) install(hash metadata.Hash, removeCurrent bool) error {
	status, err := m.status.Read()
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"hash": hash.String(), "app": m.paths.AppName()})

	if hash.IsSet() && hash.Equal(status.CurrentPackage) {
		logger.Info("package is already current")
		return nil
	}

	if h, ok := hash.Get(); ok {
		folder, err := m.paths.PackageFolderPath(h)
		if err != nil {
			return err
		}
		if !platform.Exists(folder) {
			return fmt.Errorf("%w: no folder for %s", ErrPackageNotFound, h)
		}
	}

	if removeCurrent {
		if current, ok := status.CurrentPackage.Get(); ok {
			logger.Debugf("removing current package %s", current)
			if err := m.removePackage(current); err != nil {
				return err
			}
		}
	} else {
		if previous, ok := status.PreviousPackage.Get(); ok && !status.PreviousPackage.Equal(hash) {
			logger.Debugf("removing previous package %s", previous)
			if err := m.removePackage(previous); err != nil {
				return err
			}
		}
		status.PreviousPackage = status.CurrentPackage
	}

	status.CurrentPackage = hash
	if err := m.status.Write(status); err != nil {
		return err
	}

	logger.WithField("previous", status.PreviousPackage.String()).Info("installed package")
	return nil
}

// Rollback deletes the current package and makes the previous one current.
// It fails when there is no current package folder to delete.
func (m *Manager) Rollback() error {
	if err := m.rollback(); err != nil {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	return nil
}

func (m *Manager) rollback() error {
	status, err := m.status.Read()
	if err != nil {
		return err
	}

	current, ok := status.CurrentPackage.Get()
	if !ok {
		return fmt.Errorf("%w: no current package", ErrPackageNotFound)
	}
	folder, err := m.paths.PackageFolderPath(current)
	if err != nil {
		return err
	}
	if !platform.Exists(folder) {
		return fmt.Errorf("%w: no folder for current package %s", ErrPackageNotFound, current)
	}

	// The pointer must never end up on a folder that does not exist.
	if previous, ok := status.PreviousPackage.Get(); ok {
		prevFolder, err := m.paths.PackageFolderPath(previous)
		if err != nil {
			return err
		}
		if !platform.Exists(prevFolder) {
			return fmt.Errorf("%w: no folder for previous package %s", ErrPackageNotFound, previous)
		}
	}

	if err := m.removePackage(current); err != nil {
		return err
	}

	status.CurrentPackage = status.PreviousPackage
	status.PreviousPackage = metadata.None()
	if err := m.status.Write(status); err != nil {
		return err
	}

	log.WithFields(log.Fields{"app": m.paths.AppName(), "from": current, "to": status.CurrentPackage.String()}).
		Info("rolled back package")
	return nil
}

func (m *Manager) removePackage(hash string) error {
	folder, err := m.paths.PackageFolderPath(hash)
	if err != nil {
		return err
	}
	if err := platform.Remove(folder); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
