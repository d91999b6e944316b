package supplier

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"

	"github.com/genricoloni/walltz/internal/domain"
	json "github.com/goccy/go-json"
)

// maxRandomAttempts bounds the regeneration of random stems that collide with cached files
const maxRandomAttempts = 16

// CachedFunc reports whether an image with the given stem is already cached.
type CachedFunc func(stem string) bool

// FieldError names the response field that did not match the schema.
type FieldError struct {
	Field    string
	Expected string
	// Actual is the JSON type found, "missing" when absent
	Actual string
}

func (e *FieldError) Error() string {
	if e.Actual == "missing" {
		return fmt.Sprintf("no value for key: %s", e.Field)
	}
	return fmt.Sprintf("key %s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// Decoder extracts one image reference from a response body.
type Decoder struct {
	schema   Response
	randomID func() string
}

// NewDecoder creates a decoder for a validated response schema.
func NewDecoder(schema Response) *Decoder {
	return &Decoder{
		schema: schema,
		randomID: func() string {
			return strconv.FormatUint(uint64(rand.Uint32()), 10)
		},
	}
}

// Decode parses body according to the schema. cached may be nil; when non-nil it drives
// cache-skip scanning and keeps random stems from colliding with cached files.
func (d *Decoder) Decode(body []byte, params domain.SearchParameters, cached CachedFunc) (domain.ImageReference, error) {
	var (
		ref domain.ImageReference
		err error
	)
	switch d.schema.Format {
	case ResponseJSON:
		ref, err = d.decodeJSON(body, params, cached)
	default:
		err = fmt.Errorf("unsupported response format %q", d.schema.Format)
	}
	if err != nil {
		return domain.ImageReference{}, domain.E(domain.KindDecode, "supplier.decode", err)
	}
	return ref, nil
}

func (d *Decoder) decodeJSON(body []byte, params domain.SearchParameters, cached CachedFunc) (domain.ImageReference, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return domain.ImageReference{}, fmt.Errorf("response is not a JSON object: %w", err)
	}

	loc := d.schema.Location
	switch loc.Kind {
	case LocationArray:
		raw, ok := data[loc.Key]
		if !ok {
			return domain.ImageReference{}, &FieldError{Field: loc.Key, Expected: "array", Actual: "missing"}
		}
		entries, ok := raw.([]any)
		if !ok {
			return domain.ImageReference{}, &FieldError{Field: loc.Key, Expected: "array", Actual: jsonType(raw)}
		}
		if len(entries) == 0 {
			return domain.ImageReference{}, errors.New("no entries in response array")
		}

		if params.SkipCache && cached != nil {
			for i, entry := range entries {
				ref, err := d.decodeEntry(elementField(loc.Key, i), entry, cached)
				if err != nil {
					return domain.ImageReference{}, err
				}
				if !cached(ref.Stem) {
					return ref, nil
				}
			}
		}
		return d.decodeEntry(elementField(loc.Key, 0), entries[0], cached)

	case LocationEntry:
		raw, ok := data[loc.Key]
		if !ok {
			return domain.ImageReference{}, &FieldError{Field: loc.Key, Expected: "object", Actual: "missing"}
		}
		return d.decodeEntry(loc.Key, raw, cached)

	default:
		return domain.ImageReference{}, fmt.Errorf("unknown result location %d", loc.Kind)
	}
}

func elementField(key string, i int) string {
	return fmt.Sprintf("%s[%d]", key, i)
}

// decodeEntry reads one result object; field names it in errors.
func (d *Decoder) decodeEntry(field string, entry any, cached CachedFunc) (domain.ImageReference, error) {
	object, ok := entry.(map[string]any)
	if !ok {
		return domain.ImageReference{}, &FieldError{Field: field, Expected: "object", Actual: jsonType(entry)}
	}

	stem, err := d.decodeID(object, cached)
	if err != nil {
		return domain.ImageReference{}, err
	}

	rawURL, err := stringField(object, d.schema.ImageURLKey)
	if err != nil {
		return domain.ImageReference{}, err
	}
	source, err := url.Parse(rawURL)
	if err != nil || source.Scheme == "" || source.Host == "" {
		return domain.ImageReference{}, fmt.Errorf("key %s: %q is not a valid absolute URL", d.schema.ImageURLKey, rawURL)
	}

	format, err := d.decodeFormat(object, source)
	if err != nil {
		return domain.ImageReference{}, err
	}

	return domain.ImageReference{Stem: stem, Source: source, Format: format}, nil
}

func (d *Decoder) decodeID(object map[string]any, cached CachedFunc) (string, error) {
	var id string
	switch d.schema.ID.Kind {
	case IDRandom:
		for attempt := 0; attempt < maxRandomAttempts; attempt++ {
			id = d.randomID()
			if cached == nil || !cached(id) {
				break
			}
		}
	case IDFromKey:
		key := d.schema.ID.Key
		raw, ok := object[key]
		if !ok {
			return "", &FieldError{Field: key, Expected: "string or number", Actual: "missing"}
		}
		switch v := raw.(type) {
		case string:
			id = v
		case json.Number:
			id = v.String()
		default:
			return "", &FieldError{Field: key, Expected: "string or number", Actual: jsonType(raw)}
		}
	default:
		return "", fmt.Errorf("unknown id strategy %d", d.schema.ID.Kind)
	}

	stem := domain.SanitizeStem(id)
	if stem == "" {
		return "", fmt.Errorf("identifier %q does not yield a usable file name", id)
	}
	return stem, nil
}

func (d *Decoder) decodeFormat(object map[string]any, source *url.URL) (domain.Format, error) {
	switch d.schema.ImageType.Kind {
	case FormatFromPath:
		format, ok := domain.FormatFromURL(source)
		if !ok {
			return "", fmt.Errorf("no image format for url path: %s: %w", source.Path, domain.ErrUnknownFormat)
		}
		return format, nil
	case FormatFromKey:
		mime, err := stringField(object, d.schema.ImageType.Key)
		if err != nil {
			return "", err
		}
		format, ok := domain.FormatFromMIME(mime)
		if !ok {
			return "", fmt.Errorf("no valid file format for mime type: %s: %w", mime, domain.ErrUnknownFormat)
		}
		return format, nil
	default:
		return "", fmt.Errorf("unknown image type strategy %d", d.schema.ImageType.Kind)
	}
}

func stringField(object map[string]any, key string) (string, error) {
	raw, ok := object[key]
	if !ok {
		return "", &FieldError{Field: key, Expected: "string", Actual: "missing"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &FieldError{Field: key, Expected: "string", Actual: jsonType(raw)}
	}
	return s, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
