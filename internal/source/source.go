// Package source resolves profile URIs to local files.
package source

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

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// Fetch returns a local path for uri:
//   - a string without "://" is a local path, relative or absolute;
//   - file:// URIs use their path as is;
//   - http:// and https:// URIs are downloaded into a temporary file.
//
// cleanup removes whatever Fetch created and is never nil on success.
func Fetch(ctx context.Context, uri string) (path string, cleanup func(), err error) {
	cleanup = func() {}

	if !strings.Contains(uri, "://") {
		absPath, err := filepath.Abs(uri)
		if err != nil {
			return "", nil, fmt.Errorf("failed to get absolute path for '%s': %w", uri, err)
		}
		zap.S().Debugf("Using local profile path: %s", absPath)
		return absPath, cleanup, nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", nil, fmt.Errorf("invalid profile URI '%s': %w", uri, err)
	}

	switch parsed.Scheme {
	case "file":
		if parsed.Path == "" {
			return "", nil, fmt.Errorf("invalid file path derived from URI '%s'", uri)
		}
		zap.S().Debugf("Using local profile file: %s", parsed.Path)
		return parsed.Path, cleanup, nil

	case "http", "https":
		return download(ctx, uri)

	default:
		return "", nil, fmt.Errorf("%w '%s': only 'file://', 'http://', 'https://' or a plain local path are supported", ErrUnsupportedScheme, parsed.Scheme)
	}
}

func download(ctx context.Context, uri string) (string, func(), error) {
	zap.S().Infof("Downloading profile from %s", uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to build request for '%s': %w", uri, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download profile from '%s': %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("failed to download profile from '%s': received status code %d", uri, resp.StatusCode)
	}

	tempFile, err := os.CreateTemp("", "react-profile-*.json")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file for download: %w", err)
	}
	path := tempFile.Name()
	cleanup := func() {
		zap.S().Debugf("Cleaning up temporary file: %s", path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			zap.S().Warnf("Failed to remove temporary file '%s': %v", path, err)
		}
	}

	n, err := io.Copy(tempFile, resp.Body)
	closeErr := tempFile.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write downloaded content to '%s': %w", path, err)
	}
	if closeErr != nil {
		zap.S().Warnf("Failed to close temporary file '%s': %v", path, closeErr)
	}

	zap.S().Infof("Downloaded %s profile to %s", humanize.Bytes(uint64(n)), path)
	return path, cleanup, nil
}

// Load fetches uri and decodes it as a profiler export.
func Load(ctx context.Context, uri string) (*profiler.Document, error) {
	path, cleanup, err := Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile '%s': %w", path, err)
	}
	defer f.Close()

	doc, err := profiler.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile '%s': %w", uri, err)
	}
	return doc, nil
}
