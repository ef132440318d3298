package updater

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// StageRequest describes a package to download and prepare.
type StageRequest struct {
	// Record is written as the package.json of the staged package. Its
	// PackageHash names the package folder.
	Record metadata.PackageRecord
	URL    string
	// EntryPoint is the path of the file the host loads, e.g. "main.jsbundle".
	// Only its base name is matched.
	EntryPoint string
}

// StagedPackage is a package ready to be installed.
type StagedPackage struct {
	Record         metadata.PackageRecord
	Folder         string
	EntryPointPath string
	IsArchive      bool
}

// Stage downloads, unpacks and merges a package and writes its record. It
// does not change the current package; call Install afterwards. A failed
// stage removes the package folder.
func (m *Manager) Stage(ctx context.Context, req StageRequest) (StagedPackage, error) {
	hash := req.Record.PackageHash
	if err := paths.ValidateHash(hash); err != nil {
		return StagedPackage{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	if req.EntryPoint == "" {
		return StagedPackage{}, errors.New("entry point is required")
	}

	status, err := m.status.Read()
	if err != nil {
		return StagedPackage{}, err
	}
	// Download replaces the package folder, so a referenced folder would be
	// lost if the fetch failed.
	switch metadata.Some(hash) {
	case status.CurrentPackage:
		return StagedPackage{}, fmt.Errorf("%w: package %s is the current package", ErrDownloadFailed, hash)
	case status.PreviousPackage:
		return StagedPackage{}, fmt.Errorf("%w: package %s is the rollback target", ErrDownloadFailed, hash)
	}

	result, err := m.Download(ctx, hash, req.URL)
	if err != nil {
		return StagedPackage{}, err
	}

	folder, err := m.paths.PackageFolderPath(hash)
	if err != nil {
		return StagedPackage{}, err
	}

	staged, err := m.prepare(ctx, req, folder, result)
	if err != nil {
		if rmErr := platform.Remove(folder); rmErr != nil {
			log.WithField("hash", hash).Warnf("failed to clean up staged package: %v", rmErr)
		}
		return StagedPackage{}, err
	}

	log.WithFields(log.Fields{"hash": hash, "entry": staged.EntryPointPath}).Info("staged package")
	return staged, nil
}

func (m *Manager) prepare(ctx context.Context, req StageRequest, folder string, result DownloadResult) (StagedPackage, error) {
	if err := ctx.Err(); err != nil {
		return StagedPackage{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	appName := m.paths.AppName()

	var entryPoint string
	if result.IsArchive {
		if err := m.Unpack(result.LocalPath, folder); err != nil {
			return StagedPackage{}, err
		}
		if err := platform.Remove(result.LocalPath); err != nil {
			return StagedPackage{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
		if err := ctx.Err(); err != nil {
			return StagedPackage{}, fmt.Errorf("%w: %w", ErrUnpackFailed, err)
		}

		var err error
		entryPoint, err = m.Merge(folder, req.EntryPoint, appName)
		if err != nil {
			return StagedPackage{}, err
		}
	} else {
		// A plain bundle is the entry point itself.
		entryPoint = filepath.Join(folder, appName, filepath.Base(filepath.FromSlash(req.EntryPoint)))
		if err := platform.Rename(result.LocalPath, entryPoint); err != nil {
			return StagedPackage{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}

	if err := m.packages.write(req.Record); err != nil {
		return StagedPackage{}, err
	}

	return StagedPackage{
		Record:         req.Record,
		Folder:         folder,
		EntryPointPath: entryPoint,
		IsArchive:      result.IsArchive,
	}, nil
}
