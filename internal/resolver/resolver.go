// Package resolver turns supplier search results and external locations into
// images on disk, going through the cache before the network.
package resolver

import (
	"context"
	"fmt"
	"os"

	"github.com/genricoloni/walltz/internal/cache"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/supplier"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"go.uber.org/zap"
)

// Searcher produces an image reference for the given parameters.
type Searcher interface {
	Name() string
	Search(ctx context.Context, params domain.SearchParameters, cached supplier.CachedFunc) (domain.ImageReference, error)
}

// Resolver owns the fetch pipeline for a single invocation.
type Resolver struct {
	logger  *zap.Logger
	cache   *cache.Cache
	fetcher domain.Fetcher
}

// NewResolver creates a resolver backed by the given cache and fetcher
func NewResolver(logger *zap.Logger, c *cache.Cache, fetcher domain.Fetcher) *Resolver {
	return &Resolver{
		logger:  logger,
		cache:   c,
		fetcher: fetcher,
	}
}

// Resolve asks the supplier for a reference and fetches it, cache first.
func (r *Resolver) Resolve(ctx context.Context, s Searcher, params domain.SearchParameters) (*wallpaper.FetchedImage, error) {
	r.logger.Debug("Resolving wallpaper",
		zap.String("supplier", s.Name()),
		zap.Strings("tags", params.Tags),
		zap.Strings("aspect_ratios", params.AspectRatios),
		zap.Bool("skip_cache", params.SkipCache))

	ref, err := s.Search(ctx, params, r.cache.Has)
	if err != nil {
		return nil, fmt.Errorf("supplier %s: %w", s.Name(), err)
	}
	return r.FetchReference(ctx, ref)
}

// FetchReference returns the cached image for ref.Stem if there is one and only
// downloads the source otherwise. The result is not persisted.
func (r *Resolver) FetchReference(ctx context.Context, ref domain.ImageReference) (*wallpaper.FetchedImage, error) {
	if saved, err := r.cache.Find(ref.Stem); err == nil {
		r.logger.Debug("Cache hit", zap.String("stem", ref.Stem), zap.String("path", saved.Path()))
		return wallpaper.FromStorage(ref.Stem, saved), nil
	}

	r.logger.Debug("Downloading image",
		zap.String("stem", ref.Stem),
		zap.String("source", ref.Source.String()))

	data, err := r.fetcher.FetchImage(ctx, ref.Source.String())
	if err != nil {
		return nil, err
	}
	return wallpaper.FromMemory(ref.Stem, ref.Format, data), nil
}

// Cache persists img under the cache directory.
func (r *Resolver) Cache(img *wallpaper.FetchedImage) (*wallpaper.SavedImage, error) {
	saved, err := r.cache.Store(img)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Image cached", zap.String("path", saved.Path()))
	return saved, nil
}

// LoadExternal resolves a user supplied location. http(s) URLs are downloaded
// into the cache (or served from it), existing files are used in place.
func (r *Resolver) LoadExternal(ctx context.Context, location string) (*wallpaper.SavedImage, error) {
	if wallpaper.IsHTTPURL(location) {
		ref, err := wallpaper.ReferenceFromURL(location)
		if err != nil {
			return nil, err
		}
		img, err := r.FetchReference(ctx, ref)
		if err != nil {
			return nil, err
		}
		return r.Cache(img)
	}

	if _, err := os.Stat(location); err != nil {
		return nil, domain.PathE(domain.KindFs, "resolver.load", location,
			fmt.Errorf("not an existing file or http(s) url: %w", domain.ErrNotFound))
	}
	return wallpaper.Load(location)
}
