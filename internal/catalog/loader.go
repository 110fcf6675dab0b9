package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
	"github.com/angelmondragon/autoimport-storefront/pkg/metrics"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Loader owns the process-wide catalog and its load state.
type Loader struct {
	fetcher Fetcher
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
	sfg     singleflight.Group

	mu      sync.RWMutex
	state   State
	current *Catalog
	lastErr error
}

func NewLoader(fetcher Fetcher, logg *logger.Logger, m *metrics.StorefrontMetrics) *Loader {
	return &Loader{
		fetcher: fetcher,
		logg:    logg,
		metrics: m,
		state:   StateLoading,
	}
}

// Load fetches the catalog once; concurrent callers share the same request.
// A failed fetch keeps any previously loaded catalog and records the error.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	v, err, _ := l.sfg.Do("catalog", func() (interface{}, error) {
		cat, err := l.fetcher.Fetch(ctx)

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.lastErr = err
			if l.current == nil {
				l.state = StateFailed
			}
			l.metrics.IncCatalogFetch(metrics.ResultFailure)
			if l.logg != nil {
				l.logg.Error(l.logg.WithCatalogState(ctx, string(l.state)), "catalog.fetch_failed", err)
			}
			return nil, err
		}

		l.current = cat
		l.lastErr = nil
		l.state = StateReady
		l.metrics.IncCatalogFetch(metrics.ResultSuccess)
		if l.logg != nil {
			ctx = l.logg.WithCatalogState(ctx, string(l.state))
			l.logg.Info(l.logg.WithField(ctx, "vehicles", cat.Len()), "catalog.loaded")
		}
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Current returns the loaded catalog, or the reason none is available.
func (l *Loader) Current() (*Catalog, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch {
	case l.current != nil:
		return l.current, nil
	case l.state == StateFailed && l.lastErr != nil:
		return nil, l.lastErr
	default:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog is still loading")
	}
}

func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// LastError returns the error of the most recent failed fetch, if any.
func (l *Loader) LastError() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Reload re-runs the fetch on operator request.
func (l *Loader) Reload(ctx context.Context) (*Catalog, error) {
	if l.logg != nil {
		l.logg.Info(ctx, "catalog.reload_requested")
	}
	return l.Load(ctx)
}
