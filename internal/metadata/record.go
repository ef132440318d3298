package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrRecordNotFound is returned when a record file does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordInvalid is returned when a record file exists but cannot be
	// parsed or fails its schema.
	ErrRecordInvalid = errors.New("record invalid")
)

// ReadJSON loads the record at path, validates it against schema and decodes
// it into a T.
func ReadJSON[T any](path string, schema Schema) (T, error) {
	var zero T

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return zero, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
	}
	if err != nil {
		return zero, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := Validate(schema, data)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrRecordInvalid, path, err)
	}
	if !result.Valid {
		return zero, fmt.Errorf("%w: %s: %s", ErrRecordInvalid, path, result)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrRecordInvalid, path, err)
	}
	return v, nil
}

// WriteJSON replaces the record at path. The data goes to a temporary file
// first and is renamed into place, so readers see either the old or the new
// record.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if cleanupErr := os.Remove(tmpPath); cleanupErr != nil {
			log.Warnf("failed to remove temp record %s: %v", tmpPath, cleanupErr)
		}
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}
