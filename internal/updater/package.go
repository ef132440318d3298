package updater

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// PackageStore reads the package.json of package folders.
type PackageStore struct {
	paths *paths.Resolver
}

// NewPackageStore returns a PackageStore for the application of resolver.
func NewPackageStore(resolver *paths.Resolver) *PackageStore {
	return &PackageStore{paths: resolver}
}

// Read loads <appRoot>/<hash>/package.json.
func (s *PackageStore) Read(hash string) (metadata.PackageRecord, error) {
	folder, err := s.paths.PackageFolderPath(hash)
	if err != nil {
		return metadata.PackageRecord{}, err
	}
	if !platform.Exists(folder) {
		return metadata.PackageRecord{}, fmt.Errorf("%w: no folder for %s", ErrPackageNotFound, hash)
	}

	path, err := s.paths.PackageRecordPath(hash)
	if err != nil {
		return metadata.PackageRecord{}, err
	}

	rec, err := metadata.ReadJSON[metadata.PackageRecord](path, metadata.PackageSchema)
	switch {
	case err == nil:
	case errors.Is(err, metadata.ErrRecordNotFound):
		return metadata.PackageRecord{}, fmt.Errorf("%w: %w", ErrPackageNotFound, err)
	case errors.Is(err, metadata.ErrRecordInvalid):
		return metadata.PackageRecord{}, fmt.Errorf("%w: %w", ErrDataCorruption, err)
	default:
		return metadata.PackageRecord{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	if rec.PackageHash != hash {
		log.WithField("hash", hash).Warnf("package record names hash %q", rec.PackageHash)
	}
	return rec, nil
}

// write stores rec in the folder named by its hash. Only the staging
// pipeline writes package records.
func (s *PackageStore) write(rec metadata.PackageRecord) error {
	path, err := s.paths.PackageRecordPath(rec.PackageHash)
	if err != nil {
		return err
	}
	if err := metadata.WriteJSON(path, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
