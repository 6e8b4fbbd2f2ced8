// Package assets copies model files shipped with the application into a
// private cache directory on first use.
package assets

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store resolves bundled asset files to cached copies. Copies are keyed by
// filename only; an existing cached file is reused without validation.
type Store struct {
	assetsDir string
	cacheDir  string
	mu        sync.Mutex
}

// NewStore creates a Store reading from assetsDir and writing below cacheDir.
func NewStore(assetsDir, cacheDir string) *Store {
	return &Store{assetsDir: assetsDir, cacheDir: cacheDir}
}

// Ensure returns the cached path of the asset at relPath (relative to the
// assets directory), copying it into cacheDir/subdir when it is not cached yet.
func (s *Store) Ensure(relPath, subdir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.cacheDir, subdir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	cached := filepath.Join(dir, filepath.Base(relPath))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat cached asset: %w", err)
	}

	src := filepath.Join(s.assetsDir, relPath)
	if err := copyFile(src, cached); err != nil {
		return "", err
	}
	slog.Info("Copied asset into cache", "asset", relPath, "path", cached)
	return cached, nil
}

// copyFile writes through a temporary file so an interrupted copy never
// leaves a truncated file under the final name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open asset %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary asset file: %w", err)
	}
	defer func() {
		if _, statErr := os.Stat(tmp.Name()); statErr == nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to copy asset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary asset file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move asset into cache: %w", err)
	}
	return nil
}
