// Package supplier turns a declarative description of a remote image API into
// concrete image references: it builds the search query and decodes the response.
package supplier

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/genricoloni/walltz/internal/domain"
)

// ResponseFormat is the encoding of a supplier's response body.
type ResponseFormat string

const (
	ResponseJSON ResponseFormat = "json"
)

// UnmarshalText accepts the format tag case-insensitively.
func (f *ResponseFormat) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "json":
		*f = ResponseJSON
		return nil
	default:
		return fmt.Errorf("unsupported response format %q", text)
	}
}

// IDKind selects how the image identifier is obtained.
type IDKind int

const (
	// IDFromKey reads the identifier from a field of the entry
	IDFromKey IDKind = iota + 1
	// IDRandom generates a random identifier
	IDRandom
)

// IDStrategy is the "id" table of a response schema.
type IDStrategy struct {
	Kind IDKind
	Key  string
}

func (s *IDStrategy) UnmarshalTOML(data any) error {
	typ, key, err := variantFields("id", data)
	if err != nil {
		return err
	}
	switch typ {
	case "key":
		if key == "" {
			return errors.New(`id of type "key" requires a key`)
		}
		*s = IDStrategy{Kind: IDFromKey, Key: key}
	case "random":
		*s = IDStrategy{Kind: IDRandom}
	default:
		return fmt.Errorf(`unknown id type %q, expected "key" or "random"`, typ)
	}
	return nil
}

// LocationKind selects where in the response the result entry lives.
type LocationKind int

const (
	// LocationArray holds candidate entries in an array field
	LocationArray LocationKind = iota + 1
	// LocationEntry holds the single entry in an object field
	LocationEntry
)

// Location is the "location" table of a response schema.
type Location struct {
	Kind LocationKind
	Key  string
}

func (l *Location) UnmarshalTOML(data any) error {
	typ, key, err := variantFields("location", data)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("location of type %q requires a key", typ)
	}
	switch typ {
	case "array":
		*l = Location{Kind: LocationArray, Key: key}
	case "entry":
		*l = Location{Kind: LocationEntry, Key: key}
	default:
		return fmt.Errorf(`unknown location type %q, expected "array" or "entry"`, typ)
	}
	return nil
}

// FormatKind selects how the image format is determined.
type FormatKind int

const (
	// FormatFromPath infers the format from the URL path extension
	FormatFromPath FormatKind = iota + 1
	// FormatFromKey reads a MIME type from a field of the entry
	FormatFromKey
)

// FormatStrategy is the "image_type" table of a response schema.
type FormatStrategy struct {
	Kind FormatKind
	Key  string
}

func (s *FormatStrategy) UnmarshalTOML(data any) error {
	typ, key, err := variantFields("image_type", data)
	if err != nil {
		return err
	}
	switch typ {
	case "path":
		*s = FormatStrategy{Kind: FormatFromPath}
	case "key":
		if key == "" {
			return errors.New(`image_type of type "key" requires a key`)
		}
		*s = FormatStrategy{Kind: FormatFromKey, Key: key}
	default:
		return fmt.Errorf(`unknown image_type type %q, expected "path" or "key"`, typ)
	}
	return nil
}

// variantFields extracts the lower-cased "type" tag and the optional "key" of a variant table.
func variantFields(field string, data any) (typ, key string, err error) {
	table, ok := data.(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("%s must be a table", field)
	}
	rawType, ok := table["type"].(string)
	if !ok {
		return "", "", fmt.Errorf("%s requires a string type", field)
	}
	if rawKey, present := table["key"]; present {
		if key, ok = rawKey.(string); !ok {
			return "", "", fmt.Errorf("%s key must be a string", field)
		}
	}
	return strings.ToLower(strings.TrimSpace(rawType)), key, nil
}

// Response describes how to decode a supplier response body.
type Response struct {
	Format      ResponseFormat `toml:"format"`
	ID          IDStrategy     `toml:"id"`
	Location    Location       `toml:"location"`
	ImageURLKey string         `toml:"image_url_key"`
	ImageType   FormatStrategy `toml:"image_type"`
}

// QueryTemplate renders a list of values as one query parameter.
type QueryTemplate struct {
	Query     string `toml:"query"`
	Prefix    string `toml:"prefix"`
	Separator string `toml:"separator"`
	// LegacySeparator accepts the historical "seperator" spelling
	LegacySeparator string `toml:"seperator"`
}

// Sort is a query parameter appended verbatim.
type Sort struct {
	Query string `toml:"query"`
	Value string `toml:"value"`
}

// Config is the declarative description of one supplier, read from its own file.
type Config struct {
	Name        string        `toml:"-"`
	BaseURL     string        `toml:"base_url"`
	Response    Response      `toml:"response"`
	Tags        QueryTemplate `toml:"tags"`
	AspectRatio QueryTemplate `toml:"aspect_ratio"`
	Sort        Sort          `toml:"sort"`
}

// Parse decodes and validates a supplier definition.
func Parse(name string, data []byte) (*Config, error) {
	cfg := &Config{Name: name}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, domain.E(domain.KindConfig, "supplier.parse", fmt.Errorf("supplier %s: %w", name, err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, domain.E(domain.KindConfig, "supplier.parse", fmt.Errorf("supplier %s: %w", name, err))
	}
	return cfg, nil
}

// Load reads a supplier definition file.
func Load(name, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.PathE(domain.KindConfig, "supplier.load", path, fmt.Errorf("failed to read supplier file: %w", err))
	}
	return Parse(name, data)
}

// Validate checks that every required field and variant is present.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	if c.Response.Format == "" {
		return errors.New("response.format is required")
	}
	if c.Response.ID.Kind == 0 {
		return errors.New("response.id is required")
	}
	if c.Response.Location.Kind == 0 {
		return errors.New("response.location is required")
	}
	if c.Response.ImageURLKey == "" {
		return errors.New("response.image_url_key is required")
	}
	if c.Response.ImageType.Kind == 0 {
		return errors.New("response.image_type is required")
	}
	if c.Tags.Query == "" {
		return errors.New("tags.query is required")
	}
	if c.AspectRatio.Query == "" {
		return errors.New("aspect_ratio.query is required")
	}
	if c.Sort.Query == "" {
		return errors.New("sort.query is required")
	}
	return nil
}
