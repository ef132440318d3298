package updater

import (
	"errors"
	"fmt"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
)

// StatusStore reads and writes status.json. It holds no lock; see the
// package documentation.
type StatusStore struct {
	paths *paths.Resolver
}

// NewStatusStore returns a StatusStore for the application of resolver.
func NewStatusStore(resolver *paths.Resolver) *StatusStore {
	return &StatusStore{paths: resolver}
}

// Read returns the status record. A missing file yields the zero record.
func (s *StatusStore) Read() (metadata.StatusRecord, error) {
	path, err := s.paths.StatusFilePath()
	if err != nil {
		return metadata.StatusRecord{}, err
	}

	rec, err := metadata.ReadJSON[metadata.StatusRecord](path, metadata.StatusSchema)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, metadata.ErrRecordNotFound):
		return metadata.StatusRecord{}, nil
	case errors.Is(err, metadata.ErrRecordInvalid):
		return metadata.StatusRecord{}, fmt.Errorf("%w: %w", ErrDataCorruption, err)
	default:
		return metadata.StatusRecord{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
}

// Write replaces the whole status record in one call.
func (s *StatusStore) Write(rec metadata.StatusRecord) error {
	path, err := s.paths.StatusFilePath()
	if err != nil {
		return err
	}
	if err := metadata.WriteJSON(path, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}
