package service

import (
	"context"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
)

// Store is the read surface of the document store. repository.MongoStore and
// repository.MemoryStore implement it.
type Store interface {
	Find(ctx context.Context, c repository.Collection, filter query.Clause, opts query.FindOptions) ([]model.Document, error)
	FindByID(ctx context.Context, c repository.Collection, id string) (model.Document, error)
	Count(ctx context.Context, c repository.Collection, filter query.Clause) (int64, error)
	Distinct(ctx context.Context, c repository.Collection, field string) ([]any, error)
	Group(ctx context.Context, c repository.Collection, g query.Group) ([]model.GroupCount, error)
}

// Page is a skip/limit window.
type Page struct {
	Skip  int64
	Limit int64
}
