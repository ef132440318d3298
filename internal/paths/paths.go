// Package paths computes every on-disk location of the package store from a
// documents directory, an application name and a package hash. It performs
// no I/O.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Fixed file and folder names. Installed packages on disk depend on these
// names; they must not change.
const (
	StatusFile       = "status.json"
	PackageFile      = "package.json"
	UnzippedFolder   = "unzipped"
	DiffManifestFile = "hotcodepush.json"
	// ExtractFolder receives raw archive entries before the top-level entry
	// is renamed to UnzippedFolder.
	ExtractFolder = ".extract"
	// DownloadFile is the name of a fetched payload inside its package folder.
	DownloadFile = "download"
)

// reservedAppNames share a package folder with the app content folder.
var reservedAppNames = []string{StatusFile, PackageFile, UnzippedFolder, ExtractFolder, DownloadFile}

var (
	// ErrAppNameUnset is returned when the resolver has no application name.
	ErrAppNameUnset = errors.New("application name is not configured")
	// ErrInvalidHash is returned for hashes that are not a single path element.
	ErrInvalidHash = errors.New("invalid package hash")
	// ErrInvalidAppName is returned for application names that are not a
	// single path element or collide with a fixed name.
	ErrInvalidAppName = errors.New("invalid application name")
)

// Resolver maps an application and package hashes to paths.
type Resolver struct {
	documentsDir string
	appName      string
}

// New returns a Resolver rooted at documentsDir for appName.
func New(documentsDir, appName string) *Resolver {
	return &Resolver{documentsDir: documentsDir, appName: appName}
}

// AppName returns the application name the resolver was created with.
func (r *Resolver) AppName() string {
	return r.appName
}

// AppRoot returns <documentsDir>/<appName>.
func (r *Resolver) AppRoot() (string, error) {
	if r.appName == "" {
		return "", ErrAppNameUnset
	}
	if err := ValidateAppName(r.appName); err != nil {
		return "", err
	}
	return filepath.Join(r.documentsDir, r.appName), nil
}

// StatusFilePath returns <appRoot>/status.json.
func (r *Resolver) StatusFilePath() (string, error) {
	root, err := r.AppRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, StatusFile), nil
}

// PackageFolderPath returns <appRoot>/<hash>.
func (r *Resolver) PackageFolderPath(hash string) (string, error) {
	if err := ValidateHash(hash); err != nil {
		return "", err
	}
	root, err := r.AppRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, hash), nil
}

// PackageRecordPath returns <appRoot>/<hash>/package.json.
func (r *Resolver) PackageRecordPath(hash string) (string, error) {
	return r.inPackage(hash, PackageFile)
}

// PackageContentPath returns <appRoot>/<hash>/<appName>, the folder holding
// the installed files of a package.
func (r *Resolver) PackageContentPath(hash string) (string, error) {
	return r.inPackage(hash, r.appName)
}

// UnzippedPath returns <appRoot>/<hash>/unzipped.
func (r *Resolver) UnzippedPath(hash string) (string, error) {
	return r.inPackage(hash, UnzippedFolder)
}

func (r *Resolver) inPackage(hash, name string) (string, error) {
	folder, err := r.PackageFolderPath(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, name), nil
}

// ValidateHash rejects hashes that would not resolve to a direct child of
// the app root.
func ValidateHash(hash string) error {
	switch {
	case hash == "", hash == ".", hash == "..":
		return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	case strings.ContainsAny(hash, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidHash, hash)
	case hash == StatusFile:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidHash, hash)
	}
	return nil
}

// ValidateAppName rejects names that would escape the documents directory or
// clash with the fixed names inside a package folder.
func ValidateAppName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidAppName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidAppName, name)
	case slices.Contains(reservedAppNames, name):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidAppName, name)
	}
	return nil
}
