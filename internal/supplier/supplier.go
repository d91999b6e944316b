package supplier

import (
	"context"

	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

// Supplier searches one configured remote image API.
type Supplier struct {
	logger  *zap.Logger
	cfg     *Config
	fetcher domain.Fetcher
	decoder *Decoder
}

// New creates a supplier from a validated configuration.
func New(logger *zap.Logger, cfg *Config, fetcher domain.Fetcher) *Supplier {
	return &Supplier{
		logger:  logger,
		cfg:     cfg,
		fetcher: fetcher,
		decoder: NewDecoder(cfg.Response),
	}
}

// Name returns the supplier name from the global configuration.
func (s *Supplier) Name() string {
	return s.cfg.Name
}

// Search issues one GET against the supplier and decodes a single image reference.
func (s *Supplier) Search(ctx context.Context, params domain.SearchParameters, cached CachedFunc) (domain.ImageReference, error) {
	u, err := s.cfg.BuildURL(params)
	if err != nil {
		return domain.ImageReference{}, err
	}

	s.logger.Debug("Querying supplier",
		zap.String("supplier", s.cfg.Name),
		zap.String("url", u.String()))

	body, err := s.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return domain.ImageReference{}, err
	}

	ref, err := s.decoder.Decode(body, params, cached)
	if err != nil {
		return domain.ImageReference{}, err
	}

	s.logger.Debug("Supplier returned image",
		zap.String("supplier", s.cfg.Name),
		zap.String("stem", ref.Stem),
		zap.String("source", ref.Source.String()),
		zap.String("format", ref.Format.String()))

	return ref, nil
}
