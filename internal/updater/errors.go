package updater

import "errors"

// Error kinds returned by Manager. Every failure wraps one of these together
// with its cause, so both match errors.Is.
var (
	// ErrDataCorruption means a metadata file exists but cannot be parsed.
	ErrDataCorruption = errors.New("data corruption")
	// ErrPackageNotFound means a package folder or its record is missing.
	ErrPackageNotFound = errors.New("package not found")
	// ErrDownloadFailed wraps failures of the download stage.
	ErrDownloadFailed = errors.New("download failed")
	// ErrUnpackFailed wraps failures of the unpack stage.
	ErrUnpackFailed = errors.New("unpack failed")
	// ErrEntryPointMissing means the merged package has no entry point file.
	ErrEntryPointMissing = errors.New("entry point missing")
	// ErrInstallFailed wraps failures of Install.
	ErrInstallFailed = errors.New("install failed")
	// ErrRollbackFailed wraps failures of Rollback.
	ErrRollbackFailed = errors.New("rollback failed")
	// ErrIOFailure wraps generic filesystem failures.
	ErrIOFailure = errors.New("i/o failure")
)
