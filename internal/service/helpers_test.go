package service

import (
	"context"
	"errors"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
)

const (
	aliceID = "11111111-2222-3333-4444-555555555555"
	bobID   = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	ghostID = "99999999-8888-7777-6666-555555555555"
)

func directoryStore() *repository.MemoryStore {
	s := repository.NewMemoryStore()
	s.Put(repository.Users,
		model.Document{"_id": aliceID, "firstname": "Alice", "lastname": "Martin", "email": "alice@example.com", "sourceId": "amartin", "updatedAt": "2024-03-01T00:00:00Z"},
		model.Document{"_id": bobID, "displayName": "Bob B", "email": "bob@example.com", "username": "bobby", "updatedAt": "2024-03-05T00:00:00Z"},
	)
	s.Put(repository.APIs,
		model.Document{"_id": "api-1", "name": "Payments", "description": "card payments", "updatedAt": "2024-02-01T00:00:00Z"},
		model.Document{"_id": "api-2", "name": "Weather", "description": "forecasts", "updatedAt": "2024-02-10T00:00:00Z"},
	)
	s.Put(repository.Applications,
		model.Document{"_id": "app-1", "name": "Mobile", "primaryOwner": map[string]any{"id": aliceID}, "updatedAt": "2024-01-01T00:00:00Z"},
		model.Document{"_id": "app-2", "name": "Backoffice", "createdBy": ghostID, "updatedAt": "2024-01-03T00:00:00Z"},
		model.Document{"_id": "app-3", "name": "Orphan", "updatedAt": "2024-01-02T00:00:00Z"},
	)
	return s
}

var errBroken = errors.New("store unavailable")

// failingStore serves audits from an inner store and fails every other read.
type failingStore struct {
	inner Store
}

func (f failingStore) Find(ctx context.Context, c repository.Collection, filter query.Clause, opts query.FindOptions) ([]model.Document, error) {
	if c != repository.Audits {
		return nil, errBroken
	}
	return f.inner.Find(ctx, c, filter, opts)
}

func (f failingStore) FindByID(ctx context.Context, c repository.Collection, id string) (model.Document, error) {
	if c != repository.Audits {
		return nil, errBroken
	}
	return f.inner.FindByID(ctx, c, id)
}

func (f failingStore) Count(ctx context.Context, c repository.Collection, filter query.Clause) (int64, error) {
	return f.inner.Count(ctx, c, filter)
}

func (f failingStore) Distinct(ctx context.Context, c repository.Collection, field string) ([]any, error) {
	return f.inner.Distinct(ctx, c, field)
}

func (f failingStore) Group(ctx context.Context, c repository.Collection, g query.Group) ([]model.GroupCount, error) {
	return f.inner.Group(ctx, c, g)
}
