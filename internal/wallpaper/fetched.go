package wallpaper

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/google/uuid"
)

// Transcoder re-encodes image bytes into the format implied by dstPath.
type Transcoder interface {
	Transcode(ctx context.Context, src []byte, dstPath string) error
}

// FetchedImage is either bytes held in memory or a cache hit.
type FetchedImage struct {
	stem   string
	format domain.Format
	data   []byte
	stored *SavedImage
}

// FromMemory wraps downloaded bytes that are not on disk yet.
func FromMemory(stem string, format domain.Format, data []byte) *FetchedImage {
	return &FetchedImage{stem: stem, format: format, data: data}
}

// FromStorage wraps an image already present on disk, e.g. a cache hit.
func FromStorage(stem string, saved *SavedImage) *FetchedImage {
	return &FetchedImage{stem: stem, format: saved.Format(), stored: saved}
}

// Stem returns the cache key of the image
func (f *FetchedImage) Stem() string {
	return f.stem
}

// Format returns the format of the source bytes
func (f *FetchedImage) Format() domain.Format {
	return f.format
}

// Stored returns the on-disk image when this is a cache hit, nil otherwise.
func (f *FetchedImage) Stored() *SavedImage {
	return f.stored
}

// FileName returns "<stem>.<canonical extension>".
func (f *FetchedImage) FileName() string {
	return f.stem + "." + f.format.Extension()
}

// Save writes the raw bytes verbatim. The extension of path must belong to the image format.
func (f *FetchedImage) Save(path string) (*SavedImage, error) {
	if f.stored != nil {
		if same, _ := samePath(f.stored.Path(), path); same {
			return f.stored, nil
		}
		return f.stored.CopyTo(path)
	}

	if err := checkExtension(f.format, path); err != nil {
		return nil, err
	}
	if err := writeFile(path, f.data); err != nil {
		return nil, err
	}
	return Load(path)
}

// SaveToFormat behaves like Save when the extension of path matches the image format,
// and otherwise decodes and re-encodes the image into the format named by the extension.
func (f *FetchedImage) SaveToFormat(ctx context.Context, path string, t Transcoder) (*SavedImage, error) {
	if f.format.MatchesExtension(filepath.Ext(path)) {
		return f.Save(path)
	}

	data := f.data
	if f.stored != nil {
		var err error
		data, err = os.ReadFile(f.stored.Path())
		if err != nil {
			return nil, domain.PathE(domain.KindFs, "wallpaper.save_to_format", f.stored.Path(), err)
		}
	}

	if err := t.Transcode(ctx, data, path); err != nil {
		return nil, err
	}
	return Load(path)
}

func samePath(a, b string) (bool, error) {
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	return os.SameFile(ai, bi), nil
}

// ReferenceFromURL builds a reference for a direct image URL. The stem is the URL's
// file name without extension, or a random UUID when the path has none.
func ReferenceFromURL(raw string) (domain.ImageReference, error) {
	source, err := parseHTTPURL(raw)
	if err != nil {
		return domain.ImageReference{}, err
	}

	format, ok := domain.FormatFromURL(source)
	if !ok {
		return domain.ImageReference{}, domain.E(domain.KindFormat, "wallpaper.reference", fmt.Errorf("%s: %w", raw, domain.ErrUnknownFormat))
	}

	base := path.Base(source.Path)
	stem := domain.SanitizeStem(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = uuid.NewString()
	}
	return domain.ImageReference{Stem: stem, Source: source, Format: format}, nil
}
