// Package fetch downloads package payloads over HTTP. Transport errors and
// 5xx responses are retried with exponential backoff; other non-200
// responses fail immediately.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/bundlekeep/bundlekeep/internal/branding"
	"github.com/bundlekeep/bundlekeep/internal/paths"
)

// DownloadFile is the name of the file written into the destination directory.
const DownloadFile = paths.DownloadFile

const (
	defaultRetries       = 3
	defaultRetryInterval = 800 * time.Millisecond
)

// Fetcher downloads URLs into local files.
type Fetcher struct {
	httpClient    *http.Client
	mirror        string
	retries       uint64
	retryInterval time.Duration
	progress      io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithMirror rewrites every URL onto the given base, keeping the path.
func WithMirror(mirror string) Option {
	return func(f *Fetcher) {
		f.mirror = mirror
	}
}

// WithRetries sets how many times a failed attempt is retried. Zero disables retries.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n < 0 {
			n = 0
		}
		f.retries = uint64(n)
	}
}

// WithRetryInterval sets the initial delay between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		f.retryInterval = d
	}
}

// WithProgress reports download percentage to w.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:    http.DefaultClient,
		retries:       defaultRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL into destDir and returns the path of the written
// file. A failed or cancelled fetch removes the partial file.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	target, err := f.resolve(rawURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	destPath := filepath.Join(destDir, DownloadFile)
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}

	err = f.fetchWithRetry(ctx, target, out)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("closing download file: %w", cerr)
	}
	if err != nil {
		if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("failed to remove partial download %s: %v", destPath, rmErr)
		}
		return "", err
	}

	log.WithField("url", target).Debugf("downloaded to %s", destPath)
	return destPath, nil
}

func (f *Fetcher) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if f.mirror == "" {
		return rawURL, nil
	}
	rewritten := strings.TrimRight(f.mirror, "/") + "/" + strings.TrimLeft(u.Path, "/")
	if u.RawQuery != "" {
		rewritten += "?" + u.RawQuery
	}
	return rewritten, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, target string, out *os.File) error {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     f.retryInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	policy.Reset()

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			if err := out.Truncate(0); err != nil {
				return backoff.Permanent(fmt.Errorf("truncating download file: %w", err))
			}
			if _, err := out.Seek(0, io.SeekStart); err != nil {
				return backoff.Permanent(fmt.Errorf("seeking download file: %w", err))
			}
		}
		return f.fetchOnce(ctx, target, out)
	}

	return backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, f.retries), ctx),
		func(err error, d time.Duration) {
			log.WithField("url", target).Warnf("download failed, retrying in %v: %v", d, err)
		},
	)
}

func (f *Fetcher) fetchOnce(ctx context.Context, target string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating download request: %w", err))
	}
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		return fmt.Errorf("downloading %s: %w", target, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: target}
		if resp.StatusCode >= 500 {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	if err := f.copyWithProgress(out, resp.Body, resp.ContentLength); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		return err
	}
	return nil
}

func (f *Fetcher) copyWithProgress(out io.Writer, body io.Reader, total int64) error {
	if f.progress == nil || total <= 0 {
		if _, err := io.Copy(out, body); err != nil {
			return fmt.Errorf("reading download stream: %w", err)
		}
		return nil
	}

	var downloaded int64
	lastPercent := -1

	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("writing download: %w", writeErr)
			}
			downloaded += int64(n)
			percent := int(downloaded * 100 / total)
			if percent != lastPercent {
				fmt.Fprintf(f.progress, "\rDownloading... %d%%", percent)
				lastPercent = percent
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("reading download stream: %w", readErr)
		}
	}
	fmt.Fprintln(f.progress)
	return nil
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download of %s returned status %d", e.URL, e.StatusCode)
}
