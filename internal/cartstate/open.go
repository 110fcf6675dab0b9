package cartstate

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/angelmondragon/autoimport-storefront/pkg/config"
	"github.com/angelmondragon/autoimport-storefront/pkg/db"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
	"github.com/angelmondragon/autoimport-storefront/pkg/migrate"
	"github.com/angelmondragon/autoimport-storefront/pkg/redis"
)

// Backend bundles the selected state store with its connection lifecycle.
type Backend struct {
	Driver string
	Store  StateStore

	pinger  Pinger
	closers []io.Closer
}

// Open selects and connects the backend named by the cart driver. SQL
// backends are migrated before use when auto-migrate is enabled.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Backend, error) {
	driver := cfg.Cart.NormalizedDriver()
	switch driver {
	case config.CartDriverMemory:
		store := NewMemoryStore()
		return &Backend{Driver: driver, Store: store, pinger: store}, nil

	case config.CartDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("connecting redis: %w", err)
		}
		return &Backend{
			Driver:  driver,
			Store:   NewRedisStore(client),
			pinger:  client,
			closers: []io.Closer{client},
		}, nil

	case config.CartDriverSQLite, config.CartDriverPostgres:
		dbCfg := cfg.DB
		dbCfg.Driver = driver
		client, err := db.New(ctx, dbCfg, logg)
		if err != nil {
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, multierr.Append(err, client.Close())
		}
		return &Backend{
			Driver:  driver,
			Store:   NewSQLStore(client.DB()),
			pinger:  client,
			closers: []io.Closer{client},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported cart driver %q", cfg.Cart.Driver)
	}
}

// Ping checks that the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b == nil || b.pinger == nil {
		return nil
	}
	return b.pinger.Ping(ctx)
}

// Close releases every connection opened for the backend.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i].Close())
	}
	b.closers = nil
	return err
}
