package repository

import (
	"context"
	"fmt"

	"github.com/imannovv/gravitee-audit/internal/config"
	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/imannovv/gravitee-audit/internal/query"
)

// Backend is a document store together with its lifecycle.
type Backend interface {
	Find(ctx context.Context, c Collection, filter query.Clause, opts query.FindOptions) ([]model.Document, error)
	FindByID(ctx context.Context, c Collection, id string) (model.Document, error)
	Count(ctx context.Context, c Collection, filter query.Clause) (int64, error)
	Distinct(ctx context.Context, c Collection, field string) ([]any, error)
	Group(ctx context.Context, c Collection, g query.Group) ([]model.GroupCount, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*MongoStore)(nil)
	_ Backend = (*MemoryStore)(nil)
)

// Open connects to Mongo when credentials are configured and otherwise
// loads the fixture file into memory.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	if cfg.MongoConfigured() {
		client, err := NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Mongo.Database)
		return NewMongoStore(client, cfg), nil
	}
	if cfg.Fixture.Path == "" {
		return nil, fmt.Errorf("no data source configured")
	}
	store, err := LoadFixture(cfg.Fixture.Path)
	if err != nil {
		return nil, err
	}
	logger.Warn("mongo not configured, serving fixture data", "path", cfg.Fixture.Path)
	return store, nil
}
