package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/genricoloni/walltz/internal/domain"
	"github.com/genricoloni/walltz/internal/finder"
	"go.uber.org/zap"
)

const (
	appName             = "walltz"
	configFileName      = "config.toml"
	stateFileName       = "state.toml"
	collectionsDirName  = "collections"
	defaultReapplyMode  = ReapplyResample
	defaultMaxImageSize = 64 * 1024 * 1024 // 64 MB
)

// Reapply modes for collection wallpapers.
const (
	// ReapplyResample draws a fresh random image from the collection
	ReapplyResample = "resample"
	// ReapplyReuse applies the image previously drawn from the collection
	ReapplyReuse = "reuse"
)

// CategoryConfig is a named bundle of default search tags.
type CategoryConfig struct {
	Name         string   `toml:"name"`
	Tags         []string `toml:"tags"`
	AspectRatios []string `toml:"aspect_ratios"`
}

// SupplierEntry points at a supplier definition file.
type SupplierEntry struct {
	Name string `toml:"name"`
	File string `toml:"file"`
}

// fileConfig mirrors config.toml
type fileConfig struct {
	SetCommand     string           `toml:"set_command"`
	PrivateKeyPath string           `toml:"private_key_path"`
	AspectRatios   []string         `toml:"aspect_ratios"`
	Categories     []CategoryConfig `toml:"categories"`
	Suppliers      []SupplierEntry  `toml:"suppliers"`
	Reapply        string           `toml:"reapply"`
	Notify         bool             `toml:"notify"`
	HTTPTimeout    string           `toml:"http_timeout"`
	MaxImageSize   int64            `toml:"max_image_size"`
}

// Dirs are the base directories the application works in.
type Dirs struct {
	Config string
	Cache  string
	Data   string
}

// AppConfig holds application configuration
type AppConfig struct {
	dirs        Dirs
	file        fileConfig
	httpTimeout time.Duration
}

// NewAppConfig resolves the directories from the environment and loads config.toml.
func NewAppConfig(logger *zap.Logger) (*AppConfig, error) {
	dirs, err := ResolveDirs()
	if err != nil {
		return nil, err
	}

	cfg, err := Load(dirs)
	if err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded",
		zap.String("configDir", dirs.Config),
		zap.String("cacheDir", dirs.Cache),
		zap.String("dataDir", dirs.Data),
		zap.Int("suppliers", len(cfg.file.Suppliers)),
		zap.Int("categories", len(cfg.file.Categories)))

	return cfg, nil
}

// Load reads <dirs.Config>/config.toml. A missing file yields the default configuration.
func Load(dirs Dirs) (*AppConfig, error) {
	cfg := &AppConfig{dirs: dirs}
	path := filepath.Join(dirs.Config, configFileName)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, cfg.normalize()
	case err != nil:
		return nil, domain.PathE(domain.KindConfig, "config.load", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg.file); err != nil {
		return nil, domain.PathE(domain.KindConfig, "config.load", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, domain.PathE(domain.KindConfig, "config.load", path, err)
	}
	return cfg, nil
}

func (c *AppConfig) normalize() error {
	switch strings.ToLower(strings.TrimSpace(c.file.Reapply)) {
	case "":
		c.file.Reapply = defaultReapplyMode
	case ReapplyResample:
		c.file.Reapply = ReapplyResample
	case ReapplyReuse:
		c.file.Reapply = ReapplyReuse
	default:
		return fmt.Errorf("reapply must be %q or %q, got %q", ReapplyResample, ReapplyReuse, c.file.Reapply)
	}

	if c.file.HTTPTimeout != "" {
		d, err := time.ParseDuration(c.file.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout: %w", err)
		}
		c.httpTimeout = d
	}

	if c.file.MaxImageSize <= 0 {
		c.file.MaxImageSize = defaultMaxImageSize
	}
	if c.file.PrivateKeyPath != "" {
		c.file.PrivateKeyPath = expandPath(c.file.PrivateKeyPath)
	}
	return nil
}

// ResolveDirs reads WALLTZ_CONFIG_DIR, WALLTZ_CACHE_DIR and WALLTZ_DATA_DIR, falling
// back to the XDG base directories.
func ResolveDirs() (Dirs, error) {
	configDir, err := resolveDir("WALLTZ_CONFIG_DIR", os.UserConfigDir)
	if err != nil {
		return Dirs{}, domain.E(domain.KindConfig, "config.dirs", err)
	}
	cacheDir, err := resolveDir("WALLTZ_CACHE_DIR", os.UserCacheDir)
	if err != nil {
		return Dirs{}, domain.E(domain.KindConfig, "config.dirs", err)
	}
	dataDir, err := resolveDir("WALLTZ_DATA_DIR", userDataDir)
	if err != nil {
		return Dirs{}, domain.E(domain.KindConfig, "config.dirs", err)
	}
	return Dirs{Config: configDir, Cache: cacheDir, Data: dataDir}, nil
}

func resolveDir(envKey string, base func() (string, error)) (string, error) {
	if dir := os.Getenv(envKey); dir != "" {
		return expandPath(dir), nil
	}
	root, err := base()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, appName), nil
}

// userDataDir follows $XDG_DATA_HOME, defaulting to ~/.local/share
func userDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// expandPath expands environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

// SetCommand returns the raw apply command
func (c *AppConfig) SetCommand() string {
	return strings.TrimSpace(c.file.SetCommand)
}

// PrivateKeyPath returns the SSH key used for collection remotes
func (c *AppConfig) PrivateKeyPath() string {
	return c.file.PrivateKeyPath
}

// AspectRatios returns the globally configured aspect ratios
func (c *AppConfig) AspectRatios() []string {
	return c.file.AspectRatios
}

// ConfigDir returns the configuration directory
func (c *AppConfig) ConfigDir() string {
	return c.dirs.Config
}

// CacheDir returns the image cache directory
func (c *AppConfig) CacheDir() string {
	return c.dirs.Cache
}

// CollectionsDir returns the directory holding collections
func (c *AppConfig) CollectionsDir() string {
	return filepath.Join(c.dirs.Data, collectionsDirName)
}

// StateFile returns the path of the persisted state record
func (c *AppConfig) StateFile() string {
	return filepath.Join(c.dirs.Data, stateFileName)
}

// ReapplyMode returns the configured reapply mode
func (c *AppConfig) ReapplyMode() string {
	return c.file.Reapply
}

// NotifyEnabled reports whether desktop notifications are enabled
func (c *AppConfig) NotifyEnabled() bool {
	return c.file.Notify
}

// HTTPTimeout returns the per-request HTTP timeout, zero for none
func (c *AppConfig) HTTPTimeout() time.Duration {
	return c.httpTimeout
}

// MaxImageSize returns the download size limit in bytes
func (c *AppConfig) MaxImageSize() int64 {
	return c.file.MaxImageSize
}

// Categories returns the configured categories
func (c *AppConfig) Categories() []CategoryConfig {
	return c.file.Categories
}

// Suppliers returns the configured supplier entries
func (c *AppConfig) Suppliers() []SupplierEntry {
	return c.file.Suppliers
}

// FindCategory returns the category matching name. Categories without their own
// aspect ratios inherit the global ones.
func (c *AppConfig) FindCategory(name string) (CategoryConfig, error) {
	if len(c.file.Categories) == 0 {
		return CategoryConfig{}, domain.E(domain.KindConfig, "config.category", errors.New("no categories defined in config file"))
	}

	names := make([]string, len(c.file.Categories))
	for i, cat := range c.file.Categories {
		names[i] = cat.Name
	}
	idx, err := finder.Find("category", name, names)
	if err != nil {
		return CategoryConfig{}, domain.E(domain.KindConfig, "config.category", err)
	}

	cat := c.file.Categories[idx]
	if cat.AspectRatios == nil {
		cat.AspectRatios = c.file.AspectRatios
	}
	return cat, nil
}

// FindSupplier returns the supplier entry matching name, or a random one when name is empty.
func (c *AppConfig) FindSupplier(name string) (SupplierEntry, error) {
	if len(c.file.Suppliers) == 0 {
		return SupplierEntry{}, domain.E(domain.KindConfig, "config.supplier", errors.New("no suppliers defined in config file"))
	}
	if name == "" {
		return c.file.Suppliers[rand.IntN(len(c.file.Suppliers))], nil
	}

	names := make([]string, len(c.file.Suppliers))
	for i, s := range c.file.Suppliers {
		names[i] = s.Name
	}
	idx, err := finder.Find("supplier", name, names)
	if err != nil {
		return SupplierEntry{}, domain.E(domain.KindConfig, "config.supplier", err)
	}
	return c.file.Suppliers[idx], nil
}

// SupplierPath resolves a supplier file relative to the config directory.
func (c *AppConfig) SupplierPath(entry SupplierEntry) string {
	file := expandPath(entry.File)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.dirs.Config, file)
}

var _ domain.Config = (*AppConfig)(nil)
