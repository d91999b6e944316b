package wallpaper

import (
	"fmt"
	"net/url"

	"github.com/genricoloni/walltz/internal/domain"
)

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	_, err := parseHTTPURL(s)
	return err == nil
}

func parseHTTPURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, domain.E(domain.KindConfig, "wallpaper.url", fmt.Errorf("the supplied url is invalid: %w", err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, domain.E(domain.KindConfig, "wallpaper.url", fmt.Errorf("the supplied url is invalid: %s", s))
	}
	return u, nil
}
