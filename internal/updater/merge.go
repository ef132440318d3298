package updater

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// errEntryPointFound stops the entry point walk early.
var errEntryPointFound = errors.New("entry point found")

// Merge turns the unzipped payload of newUpdateDir into the installed tree
// <newUpdateDir>/<appName> and returns the absolute path of the entry point.
//
// A hotcodepush.json at the root of the payload marks a diff update: the
// files it retains are first copied over from the current package. The
// payload is then copied on top, so payload files win over retained ones.
// Without a current package the retain step is skipped.
func (m *Manager) Merge(newUpdateDir, expectedEntryPoint, appName string) (string, error) {
	if err := paths.ValidateAppName(appName); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	unzipped := filepath.Join(newUpdateDir, paths.UnzippedFolder)
	content := filepath.Join(newUpdateDir, appName)

	info, err := os.Stat(unzipped)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrIOFailure, unzipped)
	}

	manifestPath := filepath.Join(unzipped, paths.DiffManifestFile)
	if platform.Exists(manifestPath) {
		if err := m.applyDiffManifest(manifestPath, content, appName); err != nil {
			return "", err
		}
		if err := platform.Remove(manifestPath); err != nil {
			return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}

	if err := platform.CopyTree(unzipped, content); err != nil {
		return "", fmt.Errorf("%w: copying payload: %w", ErrIOFailure, err)
	}
	if err := platform.Remove(unzipped); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return findEntryPoint(content, expectedEntryPoint)
}

func (m *Manager) applyDiffManifest(manifestPath, content, appName string) error {
	manifest, err := metadata.ReadJSON[metadata.DiffManifest](manifestPath, metadata.DiffManifestSchema)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDataCorruption, err)
	}

	status, err := m.status.Read()
	if err != nil {
		return err
	}
	current, ok := status.CurrentPackage.Get()
	if !ok {
		log.Debug("diff update without a current package, nothing to retain")
		return nil
	}

	currentFolder, err := m.paths.PackageFolderPath(current)
	if err != nil {
		return err
	}
	source := filepath.Join(currentFolder, appName)
	if !platform.Exists(source) {
		log.WithField("hash", current).Warn("current package has no content folder, nothing to retain")
		return nil
	}

	retained, err := retainedFiles(manifest, source)
	if err != nil {
		return err
	}

	log.WithField("hash", current).Debugf("retaining %d files from current package", len(retained))
	return m.copyRetained(source, content, retained)
}

// retainedFiles lists the paths to carry over, relative to source. An
// explicit retainedFiles list wins; otherwise everything but deletedFiles is
// retained.
func retainedFiles(manifest metadata.DiffManifest, source string) ([]string, error) {
	if manifest.RetainedFiles != nil {
		out := make([]string, 0, len(manifest.RetainedFiles))
		for _, name := range manifest.RetainedFiles {
			rel, err := localPath(name)
			if err != nil {
				return nil, err
			}
			out = append(out, rel)
		}
		return out, nil
	}

	deleted := make(map[string]bool, len(manifest.DeletedFiles))
	for _, name := range manifest.DeletedFiles {
		rel, err := localPath(name)
		if err != nil {
			return nil, err
		}
		deleted[rel] = true
	}

	var out []string
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		if !deleted[rel] {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing current package: %w", ErrIOFailure, err)
	}
	return out, nil
}

func localPath(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: diff manifest path %q escapes the package", ErrDataCorruption, name)
	}
	return rel, nil
}

func (m *Manager) copyRetained(source, dest string, files []string) error {
	var g errgroup.Group
	g.SetLimit(m.copyWorkers)

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := platform.CopyTree(filepath.Join(source, rel), filepath.Join(dest, rel)); err != nil {
				return fmt.Errorf("retaining %s: %w", rel, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// findEntryPoint returns the first file under root, in lexical walk order,
// named like the base name of expected.
func findEntryPoint(root, expected string) (string, error) {
	name := filepath.Base(filepath.FromSlash(expected))

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return errEntryPointFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEntryPointFound) {
		return "", fmt.Errorf("%w: scanning for entry point: %w", ErrIOFailure, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %q not found in %s", ErrEntryPointMissing, expected, root)
	}
	return found, nil
}
