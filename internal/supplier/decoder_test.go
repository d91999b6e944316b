package supplier

import (
	"errors"
	"strings"
	"testing"

	"github.com/genricoloni/walltz/internal/domain"
)

var arraySchema = Response{
	Format:      ResponseJSON,
	ID:          IDStrategy{Kind: IDFromKey, Key: "id"},
	Location:    Location{Kind: LocationArray, Key: "results"},
	ImageURLKey: "url",
	ImageType:   FormatStrategy{Kind: FormatFromPath},
}

var entrySchema = Response{
	Format:      ResponseJSON,
	ID:          IDStrategy{Kind: IDFromKey, Key: "identifier"},
	Location:    Location{Kind: LocationEntry, Key: "data"},
	ImageURLKey: "link",
	ImageType:   FormatStrategy{Kind: FormatFromPath},
}

func cachedSet(stems ...string) CachedFunc {
	set := make(map[string]bool, len(stems))
	for _, s := range stems {
		set[s] = true
	}
	return func(stem string) bool { return set[stem] }
}

func TestDecoder_Decode(t *testing.T) {
	tests := []struct {
		name           string
		schema         Response
		body           string
		params         domain.SearchParameters
		cached         CachedFunc
		expectedStem   string
		expectedSource string
		expectedFormat domain.Format
		expectedError  string
	}{
		{
			name:           "Array location takes first entry",
			schema:         arraySchema,
			body:           `{"results":[{"id":"42","url":"http://x/y.png"},{"id":"43","url":"http://x/z.png"}]}`,
			expectedStem:   "42",
			expectedSource: "http://x/y.png",
			expectedFormat: domain.FormatPNG,
		},
		{
			name:           "Entry location coerces numeric id",
			schema:         entrySchema,
			body:           `{"data":{"identifier":7,"link":"http://x/z.jpg"}}`,
			expectedStem:   "7",
			expectedSource: "http://x/z.jpg",
			expectedFormat: domain.FormatJPEG,
		},
		{
			name:           "Large numeric id keeps all digits",
			schema:         entrySchema,
			body:           `{"data":{"identifier":12345678901234567,"link":"http://x/z.jpg"}}`,
			expectedStem:   "12345678901234567",
			expectedSource: "http://x/z.jpg",
			expectedFormat: domain.FormatJPEG,
		},
		{
			name:   "Cache skip returns first uncached entry",
			schema: arraySchema,
			body: `{"results":[
				{"id":"a","url":"http://x/a.png"},
				{"id":"b","url":"http://x/b.png"},
				{"id":"c","url":"http://x/c.png"}]}`,
			params:         domain.SearchParameters{SkipCache: true},
			cached:         cachedSet("a", "b"),
			expectedStem:   "c",
			expectedSource: "http://x/c.png",
			expectedFormat: domain.FormatPNG,
		},
		{
			name:           "Cache skip falls back to first when all cached",
			schema:         arraySchema,
			body:           `{"results":[{"id":"a","url":"http://x/a.png"},{"id":"b","url":"http://x/b.png"}]}`,
			params:         domain.SearchParameters{SkipCache: true},
			cached:         cachedSet("a", "b"),
			expectedStem:   "a",
			expectedSource: "http://x/a.png",
			expectedFormat: domain.FormatPNG,
		},
		{
			name:           "Cached entries ignored without skip",
			schema:         arraySchema,
			body:           `{"results":[{"id":"a","url":"http://x/a.png"},{"id":"b","url":"http://x/b.png"}]}`,
			cached:         cachedSet("a"),
			expectedStem:   "a",
			expectedSource: "http://x/a.png",
			expectedFormat: domain.FormatPNG,
		},
		{
			name: "Format from MIME key",
			schema: Response{
				Format:      ResponseJSON,
				ID:          IDStrategy{Kind: IDFromKey, Key: "id"},
				Location:    Location{Kind: LocationArray, Key: "data"},
				ImageURLKey: "path",
				ImageType:   FormatStrategy{Kind: FormatFromKey, Key: "file_type"},
			},
			body:           `{"data":[{"id":"wq2x9","path":"https://w.wallhaven.cc/full/wq/wallhaven-wq2x9","file_type":"image/webp"}]}`,
			expectedStem:   "wq2x9",
			expectedSource: "https://w.wallhaven.cc/full/wq/wallhaven-wq2x9",
			expectedFormat: domain.FormatWebP,
		},
		{
			name:           "Unsafe id is sanitized",
			schema:         arraySchema,
			body:           `{"results":[{"id":"../../etc","url":"http://x/y.gif"}]}`,
			expectedStem:   "_.._etc",
			expectedSource: "http://x/y.gif",
			expectedFormat: domain.FormatGIF,
		},
		{
			name:          "Error - Missing image url key",
			schema:        arraySchema,
			body:          `{"results":[{"id":"42"}]}`,
			expectedError: "no value for key: url",
		},
		{
			name:          "Error - Wrong id type",
			schema:        arraySchema,
			body:          `{"results":[{"id":true,"url":"http://x/y.png"}]}`,
			expectedError: "key id: expected string or number, got boolean",
		},
		{
			name:          "Error - Url not a string",
			schema:        arraySchema,
			body:          `{"results":[{"id":"1","url":5}]}`,
			expectedError: "key url: expected string, got number",
		},
		{
			name:          "Error - Location not an array",
			schema:        arraySchema,
			body:          `{"results":{"id":"1"}}`,
			expectedError: "key results: expected array, got object",
		},
		{
			name:          "Error - Missing location",
			schema:        arraySchema,
			body:          `{"data":[]}`,
			expectedError: "no value for key: results",
		},
		{
			name:          "Error - Empty array",
			schema:        arraySchema,
			body:          `{"results":[]}`,
			expectedError: "no entries in response array",
		},
		{
			name:          "Error - Entry not an object",
			schema:        entrySchema,
			body:          `{"data":"nope"}`,
			expectedError: "key data: expected object, got string",
		},
		{
			name:          "Error - Unknown extension",
			schema:        arraySchema,
			body:          `{"results":[{"id":"1","url":"http://x/file.txt"}]}`,
			expectedError: "no image format for url path",
		},
		{
			name:          "Error - Relative url",
			schema:        arraySchema,
			body:          `{"results":[{"id":"1","url":"/y.png"}]}`,
			expectedError: "not a valid absolute URL",
		},
		{
			name:          "Error - Body not an object",
			schema:        arraySchema,
			body:          `[1,2,3]`,
			expectedError: "response is not a JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewDecoder(tt.schema).Decode([]byte(tt.body), tt.params, tt.cached)

			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				if !domain.IsKind(err, domain.KindDecode) {
					t.Errorf("expected decode error kind, got %q", domain.KindOf(err))
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ref.Stem != tt.expectedStem {
				t.Errorf("expected stem %q, got %q", tt.expectedStem, ref.Stem)
			}
			if ref.Source.String() != tt.expectedSource {
				t.Errorf("expected source %q, got %q", tt.expectedSource, ref.Source)
			}
			if ref.Format != tt.expectedFormat {
				t.Errorf("expected format %q, got %q", tt.expectedFormat, ref.Format)
			}
		})
	}
}

func TestDecoder_MissingFieldIsFieldError(t *testing.T) {
	_, err := NewDecoder(arraySchema).Decode([]byte(`{"results":[{"id":"42"}]}`), domain.SearchParameters{}, nil)

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T (%v)", err, err)
	}
	if fe.Field != "url" || fe.Actual != "missing" {
		t.Errorf("unexpected field error: %+v", fe)
	}
}

func TestDecoder_NonObjectEntryNamesField(t *testing.T) {
	tests := []struct {
		name          string
		schema        Response
		body          string
		expectedField string
	}{
		{name: "Entry Holds Array", schema: entrySchema, body: `{"data":[1,2]}`, expectedField: "data"},
		{name: "Array Element Not Object", schema: arraySchema, body: `{"results":["x"]}`, expectedField: "results[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(tt.schema).Decode([]byte(tt.body), domain.SearchParameters{}, nil)

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T (%v)", err, err)
			}
			if fe.Field != tt.expectedField || fe.Expected != "object" {
				t.Errorf("unexpected field error: %+v", fe)
			}
			if !domain.IsKind(err, domain.KindDecode) {
				t.Errorf("expected decode kind, got %v", domain.KindOf(err))
			}
		})
	}
}

func TestDecoder_RandomIDAvoidsCachedStems(t *testing.T) {
	schema := arraySchema
	schema.ID = IDStrategy{Kind: IDRandom}

	dec := NewDecoder(schema)
	ids := []string{"100", "200", "300"}
	calls := 0
	dec.randomID = func() string {
		id := ids[calls]
		calls++
		return id
	}

	ref, err := dec.Decode([]byte(`{"results":[{"url":"http://x/y.png"}]}`), domain.SearchParameters{}, cachedSet("100", "200"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Stem != "300" {
		t.Errorf("expected stem 300 after two collisions, got %q", ref.Stem)
	}
	if calls != 3 {
		t.Errorf("expected 3 generated ids, got %d", calls)
	}
}

func TestDecoder_RandomIDDefault(t *testing.T) {
	schema := entrySchema
	schema.ID = IDStrategy{Kind: IDRandom}

	ref, err := NewDecoder(schema).Decode([]byte(`{"data":{"link":"http://x/z.jpg"}}`), domain.SearchParameters{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Stem == "" || strings.Trim(ref.Stem, "0123456789") != "" {
		t.Errorf("expected a decimal stem, got %q", ref.Stem)
	}
}
