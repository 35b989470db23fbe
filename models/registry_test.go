package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCatalog(t *testing.T) {
	info, ok := Known("small")
	if !ok {
		t.Fatal("small missing from catalog")
	}
	if info.FileName() != "ggml-small.bin" {
		t.Errorf("FileName() = %q", info.FileName())
	}
	if info.URL() != "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin" {
		t.Errorf("URL() = %q", info.URL())
	}
	en, ok := Known("small.en")
	if !ok || !en.English {
		t.Errorf("small.en = %+v, ok %v", en, ok)
	}
	if _, ok := Known("enormous"); ok {
		t.Error("Known accepted a model outside the catalog")
	}
}

func TestResolveOrder(t *testing.T) {
	bundled := t.TempDir()
	cache := t.TempDir()
	r, err := NewRegistry(bundled, cache)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("missing everywhere", func(t *testing.T) {
		_, _, err := r.Resolve("small")
		if !errors.Is(err, ErrNotAvailable) {
			t.Errorf("err = %v, want ErrNotAvailable", err)
		}
		if r.Available("small") {
			t.Error("Available() = true for missing model")
		}
	})

	t.Run("cache hit", func(t *testing.T) {
		touch(t, filepath.Join(cache, "ggml-small.bin"))
		path, src, err := r.Resolve("small")
		if err != nil {
			t.Fatal(err)
		}
		if src != SourceCached {
			t.Errorf("src = %q, want cached", src)
		}
		if path != filepath.Join(cache, "ggml-small.bin") {
			t.Errorf("path = %q", path)
		}
	})

	t.Run("bundled wins over cache", func(t *testing.T) {
		touch(t, filepath.Join(bundled, "ggml-small.bin"))
		path, src, err := r.Resolve("small")
		if err != nil {
			t.Fatal(err)
		}
		if src != SourceBundled {
			t.Errorf("src = %q, want bundled", src)
		}
		if path != filepath.Join(bundled, "ggml-small.bin") {
			t.Errorf("path = %q", path)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, _, err := r.Resolve("enormous")
		if !errors.Is(err, ErrUnknownModel) {
			t.Errorf("err = %v, want ErrUnknownModel", err)
		}
	})
}

func TestResolveCustomPath(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry("", dir)
	if err != nil {
		t.Fatal(err)
	}
	custom := filepath.Join(dir, "finetuned.bin")
	touch(t, custom)

	path, src, err := r.Resolve(custom)
	if err != nil {
		t.Fatal(err)
	}
	if src != SourceCustom || path != custom {
		t.Errorf("Resolve(%q) = %q, %q", custom, path, src)
	}

	if _, _, err := r.Resolve(filepath.Join(dir, "missing.bin")); err == nil {
		t.Error("Resolve accepted a missing custom path")
	}
}

func TestEstimate(t *testing.T) {
	r, err := NewRegistry("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Estimate("small"); got != "small (465 MB)" {
		t.Errorf("Estimate(small) = %q", got)
	}
	if got := r.Estimate("large-v3"); got != "large-v3 (2.9 GB)" {
		t.Errorf("Estimate(large-v3) = %q", got)
	}
}
