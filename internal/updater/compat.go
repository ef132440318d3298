package updater

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
)

// CompareVersions orders the app version a package was built for against a
// host binary version: -1 when the package is older, 0 when they match, 1
// when it is newer. A leading "v" on either side is ignored.
func CompareVersions(packageVersion, binaryVersion string) (int, error) {
	pv, err := hostVersion(packageVersion)
	if err != nil {
		return 0, fmt.Errorf("package app version %q: %w", packageVersion, err)
	}
	bv, err := hostVersion(binaryVersion)
	if err != nil {
		return 0, fmt.Errorf("binary version %q: %w", binaryVersion, err)
	}
	return pv.Compare(bv), nil
}

// IsCompatible reports whether a package built for appVersion may run on a
// host binary of binaryVersion. An empty binaryVersion accepts everything.
// Versions that do not parse as semver must match exactly.
func IsCompatible(appVersion, binaryVersion string) bool {
	if binaryVersion == "" {
		return true
	}
	cmp, err := CompareVersions(appVersion, binaryVersion)
	if err != nil {
		return appVersion == binaryVersion
	}
	return cmp == 0
}

// ActivePackage returns the current package when it was built for
// binaryVersion. A package left over from another binary version reports
// ErrPackageNotFound.
func (m *Manager) ActivePackage(binaryVersion string) (metadata.PackageRecord, error) {
	rec, err := m.CurrentPackage()
	if err != nil {
		return metadata.PackageRecord{}, err
	}
	if !IsCompatible(rec.AppVersion, binaryVersion) {
		return metadata.PackageRecord{}, fmt.Errorf("%w: current package targets %s, binary is %s",
			ErrPackageNotFound, rec.AppVersion, binaryVersion)
	}
	return rec, nil
}

// hostVersion parses an app or binary version as stored in package.json and
// config. Build metadata is kept but does not affect ordering.
func hostVersion(v string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}
