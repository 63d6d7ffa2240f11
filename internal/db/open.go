package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Options selects and configures a storage backend.
type Options struct {
	Backend    string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

// Open returns the MaintenanceCollection for opts.Backend.
func Open(ctx context.Context, opts Options) (MaintenanceCollection, error) {
	switch opts.Backend {
	case BackendMemory:
		log.Info("Using in-memory maintenance store")
		return NewMemoryCollection(), nil
	case BackendSQLite, "":
		c, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", opts.SQLitePath).Info("Using SQLite maintenance store")
		return c, nil
	case BackendMongo:
		client, err := ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return nil, err
		}
		log.WithField("database", opts.MongoDB).Info("Using MongoDB maintenance store")
		return NewMongoCollection(client, opts.MongoDB), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
