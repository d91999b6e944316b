package supplier

import (
	"net/url"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
)

func (q QueryTemplate) separator() string {
	if q.Separator != "" {
		return q.Separator
	}
	return q.LegacySeparator
}

// Entry renders values as a single query parameter: each value prefixed, then joined
// with the separator (empty by default).
func (q QueryTemplate) Entry(values []string) (key, value string) {
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = q.Prefix + v
	}
	return q.Query, strings.Join(rendered, q.separator())
}

// BuildURL appends the tag, aspect ratio and sort parameters to the base URL,
// keeping any query the base URL already carries.
func (c *Config) BuildURL(params domain.SearchParameters) (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, domain.E(domain.KindConfig, "supplier.query", err)
	}

	query := u.Query()
	tagKey, tagValue := c.Tags.Entry(params.Tags)
	query.Add(tagKey, tagValue)
	ratioKey, ratioValue := c.AspectRatio.Entry(params.AspectRatios)
	query.Add(ratioKey, ratioValue)
	query.Add(c.Sort.Query, c.Sort.Value)
	u.RawQuery = query.Encode()

	return u, nil
}
