package recordstore

import (
	"context"
	"fmt"

	"github.com/handyhub/dispatch-api/internal/pkg/database"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Options selects the backing database.
type Options struct {
	Driver      string
	DatabaseURL string
	MongoURI    string
	MongoDB     string
}

// Indexer is implemented by stores that need explicit query indexes.
type Indexer interface {
	EnsureIndexes(ctx context.Context, collection string, fields ...string) error
}

// Open connects the store for opts.Driver. The returned func releases the
// connection and is never nil.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), func() {}, nil

	case DriverMongo:
		client, db, err := database.NewMongo(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		return NewMongoStore(db), func() { database.CloseMongo(client) }, nil

	case DriverPostgres:
		db, err := database.NewPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			database.ClosePostgres(db)
			return nil, nil, err
		}
		return store, func() { database.ClosePostgres(db) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
