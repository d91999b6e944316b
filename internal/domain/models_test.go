package domain

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
)

func TestFormatLookups(t *testing.T) {
	tests := []struct {
		name     string
		lookup   func() (Format, bool)
		expected Format
		ok       bool
	}{
		{name: "Extension png", lookup: func() (Format, bool) { return FormatFromExtension("png") }, expected: FormatPNG, ok: true},
		{name: "Extension with dot and case", lookup: func() (Format, bool) { return FormatFromExtension(".JPEG") }, expected: FormatJPEG, ok: true},
		{name: "Extension jpg alias", lookup: func() (Format, bool) { return FormatFromExtension("jpg") }, expected: FormatJPEG, ok: true},
		{name: "Unknown extension", lookup: func() (Format, bool) { return FormatFromExtension("txt") }, ok: false},
		{name: "Empty extension", lookup: func() (Format, bool) { return FormatFromExtension("") }, ok: false},
		{name: "Path", lookup: func() (Format, bool) { return FormatFromPath("/cache/abc.webp") }, expected: FormatWebP, ok: true},
		{name: "MIME with parameters", lookup: func() (Format, bool) { return FormatFromMIME("image/png; charset=binary") }, expected: FormatPNG, ok: true},
		{name: "Unknown MIME", lookup: func() (Format, bool) { return FormatFromMIME("text/html") }, ok: false},
		{
			name: "URL ignores query",
			lookup: func() (Format, bool) {
				u, _ := url.Parse("https://w.example/full/ab/wallhaven-ab12.jpg?token=x.png")
				return FormatFromURL(u)
			},
			expected: FormatJPEG,
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.lookup()
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatExtensions(t *testing.T) {
	if FormatJPEG.Extension() != "jpg" {
		t.Errorf("expected canonical jpeg extension 'jpg', got %q", FormatJPEG.Extension())
	}
	if !FormatJPEG.MatchesExtension(".jpeg") {
		t.Error("expected .jpeg to match jpeg")
	}
	if FormatPNG.MatchesExtension("jpg") {
		t.Error("expected jpg not to match png")
	}
	if Format("heic").Valid() {
		t.Error("expected heic to be invalid")
	}
}

func TestSanitizeStem(t *testing.T) {
	tests := map[string]string{
		"42":             "42",
		"wallhaven-q2x9": "wallhaven-q2x9",
		"../etc/passwd":  "_etc_passwd",
		"a b:c":          "a_b_c",
		"..hidden":       "hidden",
	}
	for in, expected := range tests {
		if got := SanitizeStem(in); got != expected {
			t.Errorf("SanitizeStem(%q): expected %q, got %q", in, expected, got)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	inner := PathE(KindFs, "cache.find", "/tmp/x", ErrNotFound)
	wrapped := fmt.Errorf("resolve: %w", E(KindDecode, "supplier.decode", inner))

	if KindOf(wrapped) != KindDecode {
		t.Errorf("expected outermost kind decode, got %q", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindFs) {
		t.Error("expected nested fs kind to be found")
	}
	if IsKind(wrapped, KindNetwork) {
		t.Error("did not expect network kind")
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected ErrNotFound in chain")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for plain errors")
	}
	expected := "cache.find: fs error (/tmp/x): not found"
	if inner.Error() != expected {
		t.Errorf("expected %q, got %q", expected, inner.Error())
	}
}
