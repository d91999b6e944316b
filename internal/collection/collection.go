// Package collection manages curated directories of images, optionally synced with git.
package collection

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/wallpaper"
	"go.uber.org/zap"
)

var (
	// ErrCollectionEmpty reports a collection without images.
	ErrCollectionEmpty = errors.New("there are no images in the collection")
	// ErrAlreadyExists reports a collection name that is taken.
	ErrAlreadyExists = errors.New("the collection already exists")
)

// ValidateName checks that name can be used as a collection directory.
func ValidateName(name string) error {
	var reason string
	switch {
	case name == "":
		reason = "name cannot be empty"
	case strings.ContainsRune(name, ' '):
		reason = "name cannot contain spaces"
	case strings.ContainsAny(name, `/\`), name == ".", name == "..":
		reason = "name cannot contain path separators"
	case strings.ToLower(name) != name:
		reason = "name must be lowercase"
	default:
		return nil
	}
	return domain.E(domain.KindConfig, "collection.name", fmt.Errorf("the name is invalid: %s", reason))
}

// Manager creates and opens collections below a root directory.
type Manager struct {
	logger  *zap.Logger
	root    string
	keyPath string
}

// NewManager creates a manager rooted at the configured collections directory
func NewManager(logger *zap.Logger, cfg domain.Config) *Manager {
	return &Manager{
		logger:  logger,
		root:    cfg.CollectionsDir(),
		keyPath: cfg.PrivateKeyPath(),
	}
}

func (m *Manager) pathOf(name string) string {
	return filepath.Join(m.root, name)
}

// Create makes a new collection. A non-empty remote initializes a git repository.
func (m *Manager) Create(name, remote string) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := m.pathOf(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, domain.PathE(domain.KindConfig, "collection.create", dir, ErrAlreadyExists)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.PathE(domain.KindFs, "collection.create", dir, err)
	}

	c := &Collection{logger: m.logger, name: name, path: dir, keyPath: m.keyPath}
	if remote != "" {
		if _, err := c.InitRepository(remote); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
	}
	m.logger.Debug("Collection created", zap.String("name", name), zap.String("path", dir))
	return c, nil
}

// Open returns an existing collection.
func (m *Manager) Open(name string) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := m.pathOf(name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, domain.PathE(domain.KindConfig, "collection.open", dir, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound))
	}

	c := &Collection{logger: m.logger, name: name, path: dir, keyPath: m.keyPath}
	repo, err := OpenRepository(m.logger, dir, m.keyPath)
	switch {
	case err == nil:
		c.repo = repo
	case !errors.Is(err, ErrNoRepository):
		return nil, err
	}
	return c, nil
}

// Delete removes the collection and all of its images.
func (m *Manager) Delete(name string) error {
	c, err := m.Open(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(c.path); err != nil {
		return domain.PathE(domain.KindFs, "collection.delete", c.path, err)
	}
	return nil
}

// List returns the names of all collections, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.PathE(domain.KindFs, "collection.list", m.root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clone creates a collection from a remote git repository. An empty name is
// derived from the last path element of url.
func (m *Manager) Clone(ctx context.Context, url, name string) (*Collection, error) {
	if !ValidRemoteURL(url) {
		return nil, domain.E(domain.KindConfig, "collection.clone", fmt.Errorf("not a valid git repository url: %s", url))
	}
	if name == "" {
		name = NameFromURL(url)
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := m.pathOf(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, domain.PathE(domain.KindConfig, "collection.clone", dir, ErrAlreadyExists)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, domain.PathE(domain.KindFs, "collection.clone", m.root, err)
	}

	repo, err := CloneRepository(ctx, m.logger, url, dir, m.keyPath)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Collection{logger: m.logger, name: name, path: dir, keyPath: m.keyPath, repo: repo}, nil
}

// RandomImage draws from the named collection.
func (m *Manager) RandomImage(name string) (*wallpaper.SavedImage, error) {
	c, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	return c.RandomImage()
}

// NameFromURL turns "git@host:me/Nature.git" into "nature".
func NameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return strings.ToLower(strings.ReplaceAll(url, " ", "-"))
}

// Collection is one directory of images.
type Collection struct {
	logger  *zap.Logger
	name    string
	path    string
	keyPath string
	repo    *Repository
}

// Name returns the collection name
func (c *Collection) Name() string {
	return c.name
}

// Path returns the collection directory
func (c *Collection) Path() string {
	return c.path
}

// Repository returns the git repository, nil if the collection has none.
func (c *Collection) Repository() *Repository {
	return c.repo
}

// InitRepository initializes git in the collection with remote as origin.
func (c *Collection) InitRepository(remote string) (*Repository, error) {
	if !ValidRemoteURL(remote) {
		return nil, domain.E(domain.KindConfig, "collection.init", fmt.Errorf("not a valid git repository url: %s", remote))
	}
	repo, err := InitRepository(c.logger, c.path, remote, c.keyPath)
	if err != nil {
		return nil, err
	}
	c.repo = repo
	return repo, nil
}

// Images lists every image file in the collection. Other files are skipped.
func (c *Collection) Images() ([]*wallpaper.SavedImage, error) {
	entries, err := os.ReadDir(c.path)
	if err != nil {
		return nil, domain.PathE(domain.KindFs, "collection.images", c.path, err)
	}

	var images []*wallpaper.SavedImage
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := domain.FormatFromPath(e.Name()); !ok {
			continue
		}
		img, err := wallpaper.Load(filepath.Join(c.path, e.Name()))
		if err != nil {
			c.logger.Debug("Skipping unreadable image", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

// RandomImage picks one image uniformly at random.
func (c *Collection) RandomImage() (*wallpaper.SavedImage, error) {
	images, err := c.Images()
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.PathE(domain.KindConfig, "collection.random", c.path, ErrCollectionEmpty)
	}
	return images[rand.IntN(len(images))], nil
}

// FindImage returns the image whose file name without extension is name.
func (c *Collection) FindImage(name string) (*wallpaper.SavedImage, error) {
	images, err := c.Images()
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if img.Name() == name {
			return img, nil
		}
	}
	return nil, domain.PathE(domain.KindConfig, "collection.find", c.path, fmt.Errorf("image %s: %w", name, domain.ErrNotFound))
}

// AddImage copies img into the collection as "<name>.<canonical extension>".
func (c *Collection) AddImage(img *wallpaper.SavedImage) (*wallpaper.SavedImage, error) {
	target := filepath.Join(c.path, img.Name()+"."+img.Format().Extension())
	if filepath.Clean(img.Path()) == filepath.Clean(target) {
		return img, nil
	}
	saved, err := img.CopyTo(target)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Image added to collection",
		zap.String("collection", c.name),
		zap.String("path", saved.Path()))
	return saved, nil
}
