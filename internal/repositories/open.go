package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/vtx/internal/shared"
)

// OpenStore builds the [Store] selected by cfg.Storage.Driver.
//
// The returned close function releases the backing connection and is always non-nil.
func OpenStore(ctx context.Context, cfg *shared.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case "", "sqlite":
		db, err := shared.OpenMigrated(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return NewSQLiteStore(db), db.Close, nil
	case "redis":
		store, err := NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", shared.ErrUnknownDriver, cfg.Storage.Driver)
	}
}
