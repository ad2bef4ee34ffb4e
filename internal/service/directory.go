package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"golang.org/x/sync/errgroup"
)

var ErrApplicationNotFound = errors.New("application not found")

var recentlyUpdated = &query.Sort{Field: "updatedAt", Desc: true}

// DirectoryService searches the API, application and user directories.
type DirectoryService struct {
	store       Store
	resolver    *Resolver
	concurrency int
}

func NewDirectoryService(store Store, resolver *Resolver, concurrency int) *DirectoryService {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &DirectoryService{store: store, resolver: resolver, concurrency: concurrency}
}

func (s *DirectoryService) search(ctx context.Context, c repository.Collection, text string, fields []string, page Page) (int64, []model.Document, error) {
	filter := query.Clause(query.MatchAll{})
	if text = strings.TrimSpace(text); text != "" {
		filter = query.AnyContains(text, fields...)
	}
	total, err := s.store.Count(ctx, c, filter)
	if err != nil {
		return 0, nil, fmt.Errorf("count %s: %w", c, err)
	}
	docs, err := s.store.Find(ctx, c, filter, query.FindOptions{
		Sort:  recentlyUpdated,
		Skip:  page.Skip,
		Limit: page.Limit,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("find %s: %w", c, err)
	}
	return total, docs, nil
}

// APIs lists APIs whose name or description contains text.
func (s *DirectoryService) APIs(ctx context.Context, text string, page Page) (*model.Page[model.Document], error) {
	total, docs, err := s.search(ctx, repository.APIs, text, model.EntitySearchFields, page)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.Document]{Key: "apis", Total: total, Items: docs, Skip: page.Skip, Limit: page.Limit}, nil
}

// Users lists users whose names, email or sourceId contain text.
func (s *DirectoryService) Users(ctx context.Context, text string, page Page) (*model.Page[model.Document], error) {
	total, docs, err := s.search(ctx, repository.Users, text, model.UserListFields, page)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.Document]{Key: "users", Total: total, Items: docs, Skip: page.Skip, Limit: page.Limit}, nil
}

// Applications lists applications with their resolved owners.
func (s *DirectoryService) Applications(ctx context.Context, text string, page Page) (*model.Page[model.EnrichedApplication], error) {
	total, docs, err := s.search(ctx, repository.Applications, text, model.EntitySearchFields, page)
	if err != nil {
		return nil, err
	}

	items := make([]model.EnrichedApplication, len(docs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			items[i] = s.withOwner(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	return &model.Page[model.EnrichedApplication]{
		Key:   "applications",
		Total: total,
		Items: items,
		Skip:  page.Skip,
		Limit: page.Limit,
	}, nil
}

// Application returns one application with its resolved owner.
func (s *DirectoryService) Application(ctx context.Context, id string) (*model.EnrichedApplication, error) {
	doc, err := s.store.FindByID(ctx, repository.Applications, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find application %s: %w", id, err)
	}
	app := s.withOwner(ctx, doc)
	return &app, nil
}

func (s *DirectoryService) withOwner(ctx context.Context, doc model.Document) model.EnrichedApplication {
	owner := model.OwnerID(doc)
	return model.EnrichedApplication{
		Doc:       doc,
		OwnerID:   owner,
		OwnerName: s.resolver.ResolveUser(ctx, owner, NoOwnerName).Name,
	}
}
