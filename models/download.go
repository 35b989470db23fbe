package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Fetch downloads a catalog model into the cache directory and returns the
// resulting path. The file is written to a temp name and renamed into place
// so an interrupted download never leaves a partial weight file behind.
// progress, if non-nil, receives ascending whole percentages.
func (r *Registry) Fetch(ctx context.Context, id string, progress func(percent int)) (string, error) {
	info, ok := Known(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status: %d", resp.StatusCode)
	}

	expected := resp.ContentLength
	if expected <= 0 {
		expected = info.SizeBytes
	}

	dst := filepath.Join(r.cacheDir, info.FileName())
	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmp) // no-op after the rename
	}()

	var downloaded int64
	lastPct := 0
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("write file: %w", werr)
			}
			downloaded += int64(n)
			if expected > 0 && progress != nil {
				pct := int(downloaded * 100 / expected)
				if pct > lastPct {
					lastPct = pct
					progress(pct)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("install model: %w", err)
	}
	if progress != nil {
		progress(100)
	}
	return dst, nil
}
