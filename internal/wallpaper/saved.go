// Package wallpaper models images at the two stages of the pipeline: fetched
// (bytes not yet persisted, or a cache hit) and saved (backed by a file on disk).
package wallpaper

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
)

// SavedImage is an image file that existed when the value was constructed.
type SavedImage struct {
	path   string
	format domain.Format
}

// Load checks that path is a regular file with a recognised image extension and
// returns a handle carrying its absolute, symlink-resolved path.
func Load(path string) (*SavedImage, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.PathE(domain.KindFs, "wallpaper.load", path, fmt.Errorf("the image doesn't exist: %w", domain.ErrNotFound))
		}
		return nil, domain.PathE(domain.KindFs, "wallpaper.load", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.PathE(domain.KindFs, "wallpaper.load", path, fmt.Errorf("not a regular file: %w", domain.ErrNotFound))
	}

	format, ok := domain.FormatFromPath(path)
	if !ok {
		return nil, domain.PathE(domain.KindFormat, "wallpaper.load", path, domain.ErrUnknownFormat)
	}

	abs, err := absolute(path)
	if err != nil {
		return nil, domain.PathE(domain.KindFs, "wallpaper.load", path, err)
	}
	return &SavedImage{path: abs, format: format}, nil
}

func absolute(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Path returns the absolute path of the image
func (s *SavedImage) Path() string {
	return s.path
}

// Format returns the image format
func (s *SavedImage) Format() domain.Format {
	return s.format
}

// Name returns the file name without extension.
func (s *SavedImage) Name() string {
	base := filepath.Base(s.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Exists reports whether the backing file is still present.
func (s *SavedImage) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// CopyTo copies the file verbatim to path, whose extension must belong to the same format.
func (s *SavedImage) CopyTo(path string) (*SavedImage, error) {
	if err := checkExtension(s.format, path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domain.PathE(domain.KindFs, "wallpaper.copy", s.path, err)
	}
	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	return Load(path)
}

func checkExtension(format domain.Format, path string) error {
	ext := filepath.Ext(path)
	if _, ok := domain.FormatFromExtension(ext); !ok {
		return domain.PathE(domain.KindFormat, "wallpaper.save", path, domain.ErrUnknownFormat)
	}
	if !format.MatchesExtension(ext) {
		return domain.PathE(domain.KindFormat, "wallpaper.save", path,
			fmt.Errorf("%w: %s image to %s file", domain.ErrIncompatibleFormat, format, strings.TrimPrefix(ext, ".")))
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w (missing parent directory)", fs.ErrNotExist)
		}
		return domain.PathE(domain.KindFs, "wallpaper.write", path, err)
	}
	return nil
}
