package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genricoloni/walltz/internal/cache"
	"github.com/genricoloni/walltz/internal/collection"
	"github.com/genricoloni/walltz/internal/config"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/resolver"
	"github.com/genricoloni/walltz/internal/state"
	"github.com/genricoloni/walltz/internal/supplier"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"go.uber.org/zap"
)

// Catalog resolves category and supplier names from the global configuration.
type Catalog interface {
	FindCategory(name string) (config.CategoryConfig, error)
	FindSupplier(name string) (config.SupplierEntry, error)
	SupplierPath(entry config.SupplierEntry) string
}

// AspectRatioDetector reports the aspect ratios of the attached displays.
type AspectRatioDetector func() []string

// Engine orchestrates the wallpaper pipeline: search, fetch, cache or save,
// record and apply.
type Engine struct {
	logger      *zap.Logger
	cfg         domain.Config
	catalog     Catalog
	fetcher     domain.Fetcher
	resolver    *resolver.Resolver
	cache       *cache.Cache
	store       *state.Store
	collections *collection.Manager
	executor    domain.Executor
	notifier    domain.Notifier
	transcoder  wallpaper.Transcoder

	// defaultAspectRatios is consulted when neither the caller nor the config names any
	defaultAspectRatios AspectRatioDetector
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	catalog Catalog,
	fetch domain.Fetcher,
	res *resolver.Resolver,
	c *cache.Cache,
	store *state.Store,
	collections *collection.Manager,
	exec domain.Executor,
	notifier domain.Notifier,
	transcoder wallpaper.Transcoder,
	defaultAspectRatios AspectRatioDetector,
) *Engine {
	return &Engine{
		logger:              logger,
		cfg:                 cfg,
		catalog:             catalog,
		fetcher:             fetch,
		resolver:            res,
		cache:               c,
		store:               store,
		collections:         collections,
		executor:            exec,
		notifier:            notifier,
		transcoder:          transcoder,
		defaultAspectRatios: defaultAspectRatios,
	}
}

// FetchOptions describe a fetch request.
type FetchOptions struct {
	// Category selects predefined tags, empty for none
	Category string
	// Supplier selects a supplier by name, empty picks one at random
	Supplier string
	// Tags are added to the category tags
	Tags []string
	// AspectRatios override the category and configured ratios
	AspectRatios []string
	SkipCache    bool
	// Output saves the image there instead of the cache, transcoding if needed
	Output string
	// Assign records the image and applies it
	Assign bool
}

// Result is an obtained image together with the outcome of applying it.
type Result struct {
	Image *wallpaper.SavedImage
	// Applied reports whether the apply command ran successfully
	Applied bool
	// ApplyErr is the non-fatal failure of applying the image
	ApplyErr error
}

// SearchParameters builds the search request for opts.
func (e *Engine) SearchParameters(opts FetchOptions) (domain.SearchParameters, error) {
	params := domain.SearchParameters{
		Tags:      append([]string(nil), opts.Tags...),
		SkipCache: opts.SkipCache,
	}

	var ratios []string
	if opts.Category != "" {
		cat, err := e.catalog.FindCategory(opts.Category)
		if err != nil {
			return domain.SearchParameters{}, err
		}
		params.Tags = append(params.Tags, cat.Tags...)
		ratios = cat.AspectRatios
	} else {
		ratios = e.cfg.AspectRatios()
	}

	switch {
	case len(opts.AspectRatios) > 0:
		params.AspectRatios = opts.AspectRatios
	case len(ratios) > 0:
		params.AspectRatios = ratios
	case e.defaultAspectRatios != nil:
		params.AspectRatios = e.defaultAspectRatios()
	}
	return params, nil
}

func (e *Engine) supplier(name string) (*supplier.Supplier, error) {
	entry, err := e.catalog.FindSupplier(name)
	if err != nil {
		return nil, err
	}
	cfg, err := supplier.Load(entry.Name, e.catalog.SupplierPath(entry))
	if err != nil {
		return nil, err
	}
	return supplier.New(e.logger, cfg, e.fetcher), nil
}

// Fetch resolves an image from a supplier and stores it. Failing to apply it is
// reported in the result, the image is still returned.
func (e *Engine) Fetch(ctx context.Context, opts FetchOptions) (*Result, error) {
	params, err := e.SearchParameters(opts)
	if err != nil {
		return nil, err
	}
	s, err := e.supplier(opts.Supplier)
	if err != nil {
		return nil, err
	}

	img, err := e.resolver.Resolve(ctx, s, params)
	if err != nil {
		return nil, err
	}

	var saved *wallpaper.SavedImage
	if opts.Output != "" {
		saved, err = img.SaveToFormat(ctx, outputPath(opts.Output, img), e.transcoder)
	} else {
		saved, err = e.resolver.Cache(img)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Image: saved}
	if !opts.Assign {
		return result, nil
	}

	err = e.store.Update(func(sess *state.Session) error {
		sess.SetImage(saved)
		return e.apply(ctx, sess, result)
	})
	return result, err
}

// outputPath places the image inside out when out is an existing directory.
func outputPath(out string, img *wallpaper.FetchedImage) string {
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, img.FileName())
	}
	return out
}

// Set makes name the current wallpaper. name is tried as an image path or URL
// first, then as a collection to draw from.
func (e *Engine) Set(ctx context.Context, name string) (*Result, error) {
	img, loadErr := e.resolver.LoadExternal(ctx, name)
	var from string
	if loadErr != nil {
		if collection.ValidateName(name) != nil {
			return nil, loadErr
		}
		c, err := e.collections.Open(name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.E(domain.KindConfig, "engine.set",
					fmt.Errorf("invalid name %q: not an image, url or collection", name))
			}
			return nil, err
		}
		if img, err = c.RandomImage(); err != nil {
			return nil, err
		}
		from = c.Name()
	}

	result := &Result{Image: img}
	err := e.store.Update(func(sess *state.Session) error {
		if from != "" {
			sess.SetCollection(from, img)
		} else {
			sess.SetImage(img)
		}
		return e.apply(ctx, sess, result)
	})
	return result, err
}

// UseCollection draws a random image from the collection, records it and applies it.
func (e *Engine) UseCollection(ctx context.Context, name string) (*Result, error) {
	if e.cfg.SetCommand() == "" {
		return nil, domain.E(domain.KindState, "engine.use", fmt.Errorf("cannot use a collection without a way to set the wallpaper: %w", domain.ErrNoSetCommand))
	}
	c, err := e.collections.Open(name)
	if err != nil {
		return nil, err
	}
	img, err := c.RandomImage()
	if err != nil {
		return nil, err
	}

	result := &Result{Image: img}
	err = e.store.Update(func(sess *state.Session) error {
		sess.SetCollection(c.Name(), img)
		return e.apply(ctx, sess, result)
	})
	return result, err
}

// apply runs the apply command for the session's record and notifies on success.
func (e *Engine) apply(ctx context.Context, sess *state.Session, result *Result) error {
	if err := sess.Assign(ctx, e.executor); err != nil {
		if domain.IsKind(err, domain.KindCommand) {
			e.logger.Warn("Failed to apply wallpaper", zap.Error(err))
			result.ApplyErr = err
			return nil
		}
		return err
	}
	result.Applied = true
	e.notify(ctx, result.Image.Path())
	return nil
}

func (e *Engine) notify(ctx context.Context, path string) {
	if err := e.notifier.Notify(ctx, "Wallpaper changed", path); err != nil {
		e.logger.Warn("Failed to send notification", zap.Error(err))
	}
}

// Current returns the image recorded as the wallpaper.
func (e *Engine) Current() (*wallpaper.SavedImage, error) {
	var img *wallpaper.SavedImage
	err := e.store.Update(func(sess *state.Session) error {
		var err error
		img, err = sess.Current()
		return err
	})
	return img, err
}

// Reapply applies the recorded wallpaper again without changing the record.
func (e *Engine) Reapply(ctx context.Context) error {
	return e.store.Update(func(sess *state.Session) error {
		if err := sess.Reapply(ctx, e.executor, e.cfg.ReapplyMode(), e.collections.RandomImage); err != nil {
			return err
		}
		if sess.Record().Kind != state.Unset {
			e.logger.Info("Wallpaper reapplied", zap.String("kind", sess.Record().Kind.String()))
		}
		return nil
	})
}

// SaveToCollection copies an image into the named collection. An empty which
// saves the current wallpaper, otherwise which is a path or URL.
func (e *Engine) SaveToCollection(ctx context.Context, name, which string) (*wallpaper.SavedImage, error) {
	c, err := e.collections.Open(name)
	if err != nil {
		return nil, err
	}

	var img *wallpaper.SavedImage
	if which == "" {
		img, err = e.Current()
	} else {
		img, err = e.resolver.LoadExternal(ctx, which)
	}
	if err != nil {
		return nil, err
	}
	return c.AddImage(img)
}

// Collections returns the collection manager
func (e *Engine) Collections() *collection.Manager {
	return e.collections
}

// Cache returns the image cache
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}
