package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Reapply modes for collection records
const (
	ReapplyResample = "resample"
	ReapplyReuse    = "reuse"
)

// Sampler draws a random image from the named collection.
type Sampler func(collection string) (*wallpaper.SavedImage, error)

// Session holds the record for the duration of one operation. Close writes it
// back whether or not it changed.
type Session struct {
	logger *zap.Logger
	store  *Store
	record Record
	closed bool
}

// Open loads the record from store.
func Open(logger *zap.Logger, store *Store) *Session {
	return &Session{
		logger: logger,
		store:  store,
		record: store.Load(),
	}
}

// Update runs fn inside a session and flushes it on every return path.
// Errors from fn and from the flush are combined.
func (s *Store) Update(fn func(*Session) error) (err error) {
	sess := Open(s.logger, s)
	defer func() {
		if r := recover(); r != nil {
			sess.Close()
			panic(r)
		}
		err = multierr.Append(err, sess.Close())
	}()
	return fn(sess)
}

// Close writes the record. Calling it twice writes once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Save(s.record)
}

// Record returns the current record
func (s *Session) Record() Record {
	return s.record
}

// SetImage records img as a bare image.
func (s *Session) SetImage(img *wallpaper.SavedImage) {
	s.record = ImageRecord(img.Path())
}

// SetCollection records img as drawn from the named collection.
func (s *Session) SetCollection(name string, img *wallpaper.SavedImage) {
	s.record = CollectionRecord(name, img.Path())
}

// Current returns the recorded image. It fails with ErrNoImageSet when unset and
// with ErrNotFound when the file has since disappeared.
func (s *Session) Current() (*wallpaper.SavedImage, error) {
	if s.record.Kind == Unset {
		return nil, domain.E(domain.KindState, "state.current", domain.ErrNoImageSet)
	}
	return wallpaper.Load(s.record.Path)
}

// Assign applies the recorded image. An unset record is a no-op.
func (s *Session) Assign(ctx context.Context, exec domain.Executor) error {
	if s.record.Kind == Unset {
		s.logger.Debug("No wallpaper recorded, nothing to assign")
		return nil
	}
	img, err := s.Current()
	if err != nil {
		return err
	}
	return apply(ctx, exec, img)
}

// Reapply applies the record again without changing it. For collection records
// in resample mode a fresh image is drawn from the collection.
func (s *Session) Reapply(ctx context.Context, exec domain.Executor, mode string, sample Sampler) error {
	if s.record.Kind != Collection || mode == ReapplyReuse {
		return s.Assign(ctx, exec)
	}

	img, err := sample(s.record.Collection)
	if err != nil {
		return fmt.Errorf("failed to draw from collection %s: %w", s.record.Collection, err)
	}
	s.logger.Debug("Resampled collection",
		zap.String("collection", s.record.Collection),
		zap.String("path", img.Path()))
	return apply(ctx, exec, img)
}

func apply(ctx context.Context, exec domain.Executor, img *wallpaper.SavedImage) error {
	if exec == nil {
		return domain.E(domain.KindState, "state.assign", domain.ErrNoSetCommand)
	}
	if err := exec.SetWallpaper(ctx, img.Path()); err != nil {
		if errors.Is(err, domain.ErrNoSetCommand) {
			return domain.E(domain.KindState, "state.assign", err)
		}
		if domain.IsKind(err, domain.KindCommand) {
			return err
		}
		return domain.PathE(domain.KindCommand, "state.assign", img.Path(), err)
	}
	return nil
}
