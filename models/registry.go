package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownModel is returned for identifiers outside the catalog that do
// not point at a weight file on disk.
var ErrUnknownModel = errors.New("unknown model")

// ErrNotAvailable is returned by Resolve when the model exists in the
// catalog but no local weight file was found.
var ErrNotAvailable = errors.New("model not available locally")

// Registry locates model weight files. Resolution order is the bundled
// directory, then the user cache, then a remote fetch into the cache.
type Registry struct {
	bundledDir string
	cacheDir   string
}

// NewRegistry creates a registry. bundledDir may be empty when the build
// ships no models. cacheDir defaults to the user cache when empty.
func NewRegistry(bundledDir, cacheDir string) (*Registry, error) {
	if cacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
		cacheDir = filepath.Join(base, "loudmouth", "models")
	}
	return &Registry{bundledDir: bundledDir, cacheDir: cacheDir}, nil
}

// CacheDir returns the directory remote fetches land in.
func (r *Registry) CacheDir() string { return r.cacheDir }

// isCustom reports whether id names a weight file directly rather than a
// catalog identifier.
func isCustom(id string) bool {
	return strings.ContainsRune(id, os.PathSeparator) || strings.HasSuffix(id, ".bin")
}

// Resolve maps a model identifier to a local weight file. For catalog
// models it checks the bundled directory first, then the cache. Missing
// catalog models return ErrNotAvailable; Fetch can then retrieve them.
func (r *Registry) Resolve(id string) (path string, src Source, err error) {
	if isCustom(id) {
		if _, err := os.Stat(id); err != nil {
			return "", "", fmt.Errorf("custom model %q: %w", id, err)
		}
		return id, SourceCustom, nil
	}
	info, ok := Known(id)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	if r.bundledDir != "" {
		p := filepath.Join(r.bundledDir, info.FileName())
		if _, err := os.Stat(p); err == nil {
			return p, SourceBundled, nil
		}
	}
	p := filepath.Join(r.cacheDir, info.FileName())
	if _, err := os.Stat(p); err == nil {
		return p, SourceCached, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrNotAvailable, id)
}

// Available reports whether id resolves without a remote fetch.
func (r *Registry) Available(id string) bool {
	_, _, err := r.Resolve(id)
	return err == nil
}

// Estimate describes the pending download for status messages, for
// example "small (465 MB)".
func (r *Registry) Estimate(id string) string {
	info, ok := Known(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("%s (%s)", info.ID, humanSize(info.SizeBytes))
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n/(1<<20))
	default:
		return fmt.Sprintf("%d KB", n/(1<<10))
	}
}
