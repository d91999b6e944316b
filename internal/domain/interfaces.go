package domain

import (
	"context"
	"time"
)

// Fetcher retrieves remote resources over HTTP.
//
//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/genricoloni/walltz/internal/domain Fetcher,Executor,Notifier
type Fetcher interface {
	// Fetch downloads the full response body of a GET request
	Fetch(ctx context.Context, url string) ([]byte, error)

	// FetchImage downloads a body and rejects responses that are not images
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Executor applies an image as the desktop background.
type Executor interface {
	// SetWallpaper sets the desktop wallpaper to the specified image path
	SetWallpaper(ctx context.Context, imagePath string) error
}

// Notifier tells the user that the wallpaper changed.
type Notifier interface {
	Notify(ctx context.Context, summary, body string) error
}

// Config defines the interface for application configuration
type Config interface {
	// SetCommand returns the raw apply command, "" when none is configured
	SetCommand() string

	// PrivateKeyPath returns the SSH key used for collection remotes
	PrivateKeyPath() string

	// AspectRatios returns the default aspect ratios for searches
	AspectRatios() []string

	// ConfigDir returns the directory supplier files are resolved against
	ConfigDir() string

	// CacheDir returns the image cache directory
	CacheDir() string

	// CollectionsDir returns the directory holding collections
	CollectionsDir() string

	// StateFile returns the path of the persisted application state
	StateFile() string

	// ReapplyMode returns "resample" or "reuse"
	ReapplyMode() string

	// NotifyEnabled reports whether desktop notifications are sent after applying
	NotifyEnabled() bool

	// HTTPTimeout bounds each HTTP request; zero means no limit
	HTTPTimeout() time.Duration

	// MaxImageSize bounds the size of downloaded bodies in bytes
	MaxImageSize() int64
}
