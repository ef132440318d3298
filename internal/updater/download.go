package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/platform"
)

// archiveSignature is the zip local-file-header signature.
var archiveSignature = []byte{0x50, 0x4B, 0x03, 0x04}

// DownloadResult describes a downloaded payload.
type DownloadResult struct {
	LocalPath string
	IsArchive bool
}

// Download fetches url into the folder of hash. A folder left behind by an
// earlier attempt is deleted first. On failure, including cancellation of
// ctx, the package folder is removed again. The status record is not
// touched.
func (m *Manager) Download(ctx context.Context, hash, url string) (DownloadResult, error) {
	folder, err := m.paths.PackageFolderPath(hash)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	logger := log.WithFields(log.Fields{"hash": hash, "url": url})

	if platform.Exists(folder) {
		logger.Infof("removing leftover package folder %s", folder)
		if err := platform.Remove(folder); err != nil {
			return DownloadResult{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
		}
	}

	fail := func(err error) (DownloadResult, error) {
		if rmErr := platform.Remove(folder); rmErr != nil {
			logger.Warnf("failed to clean up after download: %v", rmErr)
		}
		return DownloadResult{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	logger.Info("downloading package")
	localPath, err := m.fetcher.Fetch(ctx, url, folder)
	if err != nil {
		return fail(err)
	}

	isArchive, err := isArchiveFile(localPath)
	if err != nil {
		return fail(err)
	}

	logger.WithField("archive", isArchive).Debugf("downloaded %s", localPath)
	return DownloadResult{LocalPath: localPath, IsArchive: isArchive}, nil
}

// HasArchiveSignature reports whether header starts with the zip signature.
// Headers shorter than the signature never match.
func HasArchiveSignature(header []byte) bool {
	return len(header) >= len(archiveSignature) && bytes.Equal(header[:len(archiveSignature)], archiveSignature)
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening download: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(archiveSignature))
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading download header: %w", err)
	}
	return HasArchiveSignature(header[:n]), nil
}
