// Package state persists what the current wallpaper is and re-applies it.
package state

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

// Kind tells which variant a Record holds.
type Kind int

const (
	Unset Kind = iota
	Image
	Collection
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Collection:
		return "collection"
	default:
		return "unset"
	}
}

// Record is the persisted current wallpaper: nothing, a bare image, or an image
// drawn from a named collection.
type Record struct {
	Kind Kind
	// Path is the absolute image path, empty when Unset
	Path string
	// Collection is the collection name, only for the Collection kind
	Collection string
}

// ImageRecord returns a record for a bare image.
func ImageRecord(path string) Record {
	return Record{Kind: Image, Path: path}
}

// CollectionRecord returns a record for an image drawn from a collection.
func CollectionRecord(name, path string) Record {
	return Record{Kind: Collection, Path: path, Collection: name}
}

type stateFile struct {
	Image *imageEntry `toml:"image,omitempty"`
}

type imageEntry struct {
	Kind       string `toml:"kind"`
	Path       string `toml:"path"`
	Collection string `toml:"collection,omitempty"`
}

// Store reads and writes the state file.
type Store struct {
	logger *zap.Logger
	path   string
}

// NewStore creates a store for the state file at path
func NewStore(logger *zap.Logger, path string) *Store {
	return &Store{logger: logger, path: path}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the record. A missing or malformed file yields an Unset record.
func (s *Store) Load() Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read state file, starting unset", zap.String("path", s.path), zap.Error(err))
		}
		return Record{}
	}

	var f stateFile
	if err := toml.Unmarshal(data, &f); err != nil {
		s.logger.Warn("Failed to parse state file, starting unset", zap.String("path", s.path), zap.Error(err))
		return Record{}
	}
	if f.Image == nil || f.Image.Path == "" {
		return Record{}
	}

	switch strings.ToLower(f.Image.Kind) {
	case "image":
		return ImageRecord(f.Image.Path)
	case "collection":
		if f.Image.Collection == "" {
			break
		}
		return CollectionRecord(f.Image.Collection, f.Image.Path)
	}
	s.logger.Warn("Unknown state record, starting unset", zap.String("kind", f.Image.Kind))
	return Record{}
}

// Save overwrites the state file with r.
func (s *Store) Save(r Record) error {
	var f stateFile
	if r.Kind != Unset {
		f.Image = &imageEntry{Kind: r.Kind.String(), Path: r.Path, Collection: r.Collection}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return domain.PathE(domain.KindState, "state.save", s.path, fmt.Errorf("failed to encode state: %w", err))
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.PathE(domain.KindFs, "state.save", s.path, err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return domain.PathE(domain.KindFs, "state.save", s.path, err)
	}
	return nil
}
