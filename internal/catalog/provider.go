package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
)

// Fetcher retrieves a full catalog document.
type Fetcher interface {
	Fetch(ctx context.Context) (*Catalog, error)
}

// HTTPProvider downloads the catalog JSON document from a fixed URL.
// Requests have no client timeout and are never retried; only the caller's
// context can cut a fetch short.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider builds a provider for url. A nil client uses http.DefaultClient.
func NewHTTPProvider(url string, client *http.Client) (*HTTPProvider, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("catalog url required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{url: url, client: client}, nil
}

func (p *HTTPProvider) Fetch(ctx context.Context) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("catalog fetch failed: HTTP status %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog document could not be decoded")
	}
	return New(items), nil
}
