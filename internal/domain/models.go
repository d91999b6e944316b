package domain

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Format identifies an image encoding understood by the pipeline.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

type formatInfo struct {
	extensions []string // first entry is canonical
	mimeTypes  []string
}

var formats = map[Format]formatInfo{
	FormatPNG:  {extensions: []string{"png"}, mimeTypes: []string{"image/png"}},
	FormatJPEG: {extensions: []string{"jpg", "jpeg"}, mimeTypes: []string{"image/jpeg", "image/jpg"}},
	FormatGIF:  {extensions: []string{"gif"}, mimeTypes: []string{"image/gif"}},
	FormatBMP:  {extensions: []string{"bmp"}, mimeTypes: []string{"image/bmp", "image/x-bmp"}},
	FormatTIFF: {extensions: []string{"tiff", "tif"}, mimeTypes: []string{"image/tiff"}},
	FormatWebP: {extensions: []string{"webp"}, mimeTypes: []string{"image/webp"}},
}

// Extension returns the canonical file extension without a leading dot.
func (f Format) Extension() string {
	info, ok := formats[f]
	if !ok {
		return ""
	}
	return info.extensions[0]
}

// Extensions returns every extension accepted for the format.
func (f Format) Extensions() []string {
	return formats[f].extensions
}

// MatchesExtension reports whether ext (with or without dot, any case) belongs to the format.
func (f Format) MatchesExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range formats[f].extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := formats[f]
	return ok
}

func (f Format) String() string {
	return string(f)
}

// FormatFromExtension maps a file extension to a format.
func FormatFromExtension(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return "", false
	}
	for f, info := range formats {
		for _, e := range info.extensions {
			if e == ext {
				return f, true
			}
		}
	}
	return "", false
}

// FormatFromPath infers the format from the extension of a filesystem path.
func FormatFromPath(p string) (Format, bool) {
	return FormatFromExtension(filepath.Ext(p))
}

// FormatFromURL infers the format from the extension of the URL's path component,
// ignoring any query string or fragment.
func FormatFromURL(u *url.URL) (Format, bool) {
	return FormatFromExtension(path.Ext(u.Path))
}

// FormatFromMIME maps a MIME type such as "image/png" to a format. Parameters are ignored.
func FormatFromMIME(mime string) (Format, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for f, info := range formats {
		for _, m := range info.mimeTypes {
			if m == mime {
				return f, true
			}
		}
	}
	return "", false
}

// ImageReference is the canonical result of decoding a supplier response.
type ImageReference struct {
	// Stem is the cache key, a filesystem-safe file name without extension
	Stem string
	// Source is the absolute URL the image bytes are fetched from
	Source *url.URL
	// Format of the image at Source
	Format Format
}

// FileName returns "<stem>.<canonical extension>".
func (r ImageReference) FileName() string {
	return r.Stem + "." + r.Format.Extension()
}

// SearchParameters describe what the caller is looking for.
type SearchParameters struct {
	Tags         []string
	AspectRatios []string
	// SkipCache prefers a result whose stem is not cached yet
	SkipCache bool
}

// SanitizeStem makes an identifier safe to use as a file name. Any rune outside
// [A-Za-z0-9._-] becomes '_' and leading dots are stripped so stems never name
// hidden files or traverse directories.
func SanitizeStem(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
