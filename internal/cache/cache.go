// Package cache stores downloaded images in a flat directory keyed by stem.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MaxAge is how long an image may stay in the cache before Cleanup removes it.
const MaxAge = 7 * 24 * time.Hour

// Cache is a directory of "<stem>.<ext>" image files.
type Cache struct {
	logger *zap.Logger
	dir    string
	now    func() time.Time
	remove func(string) error
}

// Entry describes one cached image.
type Entry struct {
	Stem    string
	Path    string
	Format  domain.Format
	Size    int64
	ModTime time.Time
}

// Describe renders the entry for listings, e.g. "abc.jpg  1.2 MB  3 days ago".
func (e Entry) Describe(now time.Time) string {
	return fmt.Sprintf("%s\t%s\t%s",
		filepath.Base(e.Path),
		humanize.Bytes(uint64(e.Size)),
		humanize.RelTime(e.ModTime, now, "ago", "from now"))
}

// Open creates the cache directory if needed and sweeps stale images.
// Cleanup failures are logged, never returned.
func Open(logger *zap.Logger, dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.PathE(domain.KindFs, "cache.open", dir, err)
	}

	c := &Cache{logger: logger, dir: dir, now: time.Now, remove: os.Remove}
	removed, err := c.Cleanup()
	if err != nil {
		logger.Warn("Cache cleanup failed", zap.String("dir", dir), zap.Error(err))
	}
	if removed > 0 {
		logger.Debug("Removed stale cache entries", zap.Int("count", removed))
	}
	return c, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// PathFor returns where an image with this file name would be stored.
func (c *Cache) PathFor(fileName string) string {
	return filepath.Join(c.dir, fileName)
}

// Find returns the cached image whose file stem equals stem exactly.
func (c *Cache) Find(stem string) (*wallpaper.SavedImage, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, domain.PathE(domain.KindFs, "cache.find", c.dir, err)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if strings.TrimSuffix(name, ext) != stem {
			continue
		}
		if _, ok := domain.FormatFromExtension(ext); !ok {
			continue
		}
		return wallpaper.Load(filepath.Join(c.dir, name))
	}
	return nil, domain.E(domain.KindFs, "cache.find", fmt.Errorf("%s: %w", stem, domain.ErrNotFound))
}

// Has reports whether an image with this stem is cached.
func (c *Cache) Has(stem string) bool {
	_, err := c.Find(stem)
	return err == nil
}

// Store writes img into the cache. A cache hit is returned as is.
func (c *Cache) Store(img *wallpaper.FetchedImage) (*wallpaper.SavedImage, error) {
	if stored := img.Stored(); stored != nil && filepath.Dir(stored.Path()) == c.resolvedDir() {
		return stored, nil
	}
	saved, err := img.Save(c.PathFor(img.FileName()))
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Image cached", zap.String("path", saved.Path()))
	return saved, nil
}

func (c *Cache) resolvedDir() string {
	abs, err := filepath.Abs(c.dir)
	if err != nil {
		return c.dir
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// List returns every cached image, newest first.
func (c *Cache) List() ([]Entry, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, domain.PathE(domain.KindFs, "cache.list", c.dir, err)
	}

	var out []Entry
	for _, e := range entries {
		format, ok := domain.FormatFromPath(e.Name())
		if !ok || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Stem:    strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:    filepath.Join(c.dir, e.Name()),
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Cleanup deletes image files last modified more than MaxAge ago. Files that are
// not images are left alone. It keeps going past individual failures and
// returns all of them combined.
func (c *Cache) Cleanup() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, domain.PathE(domain.KindFs, "cache.cleanup", c.dir, err)
	}

	cutoff := c.now().Add(-MaxAge)
	removed := 0
	var errs error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := domain.FormatFromPath(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		if err := c.remove(path); err != nil {
			errs = multierr.Append(errs, domain.PathE(domain.KindFs, "cache.cleanup", path, err))
			continue
		}
		removed++
	}
	return removed, errs
}
