package updater

import (
	"context"

	"github.com/bundlekeep/bundlekeep/internal/archive"
	"github.com/bundlekeep/bundlekeep/internal/fetch"
	"github.com/bundlekeep/bundlekeep/internal/paths"
)

const defaultCopyWorkers = 4

// Fetcher downloads url into destDir and returns the local file path.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string) (string, error)
}

// Extractor extracts every entry of an archive into destDir.
type Extractor interface {
	ExtractAll(archivePath, destDir string) error
}

// Manager is the install/rollback controller of one application's package
// store. It is the only writer of status.json.
type Manager struct {
	paths       *paths.Resolver
	status      *StatusStore
	packages    *PackageStore
	fetcher     Fetcher
	extractor   Extractor
	copyWorkers int
}

// Option configures a Manager.
type Option func(*Manager)

// WithFetcher sets the network collaborator used by Download.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) {
		m.fetcher = f
	}
}

// WithExtractor sets the archive collaborator used by Unpack.
func WithExtractor(e Extractor) Option {
	return func(m *Manager) {
		m.extractor = e
	}
}

// WithCopyWorkers bounds the number of parallel file copies during Merge.
func WithCopyWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.copyWorkers = n
		}
	}
}

// New creates a Manager for the application described by resolver.
func New(resolver *paths.Resolver, opts ...Option) *Manager {
	m := &Manager{
		paths:       resolver,
		status:      NewStatusStore(resolver),
		packages:    NewPackageStore(resolver),
		fetcher:     fetch.New(),
		extractor:   archive.Zip{},
		copyWorkers: defaultCopyWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Paths returns the resolver the manager was created with.
func (m *Manager) Paths() *paths.Resolver {
	return m.paths
}
