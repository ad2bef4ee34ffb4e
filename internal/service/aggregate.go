package service

import (
	"context"
	"fmt"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	topN       = 10
	alertLimit = 50

	day = 24 * time.Hour
)

// AggregateService computes dashboard counts, rankings and critical-event alerts.
type AggregateService struct {
	store    Store
	resolver *Resolver
	enricher *Enricher
	now      func() time.Time
}

func NewAggregateService(store Store, resolver *Resolver, enricher *Enricher) *AggregateService {
	return &AggregateService{store: store, resolver: resolver, enricher: enricher, now: time.Now}
}

// WithClock replaces the time source used for windows.
func (s *AggregateService) WithClock(now func() time.Time) *AggregateService {
	s.now = now
	return s
}

func (s *AggregateService) since(window time.Duration) query.Range {
	return query.Since("createdAt", s.now().Add(-window))
}

// Stats returns totals, recent counts and top users/events over all time.
func (s *AggregateService) Stats(ctx context.Context) (*model.Stats, error) {
	var (
		stats  model.Stats
		byType []model.GroupCount
		users  []model.GroupCount
		events []model.GroupCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Total, err = s.store.Count(gctx, repository.Audits, query.MatchAll{})
		return wrap("count total", err)
	})
	g.Go(func() (err error) {
		stats.Last24h, err = s.store.Count(gctx, repository.Audits, s.since(day))
		return wrap("count last 24h", err)
	})
	g.Go(func() (err error) {
		stats.Last7d, err = s.store.Count(gctx, repository.Audits, s.since(7*day))
		return wrap("count last 7d", err)
	})
	g.Go(func() (err error) {
		byType, err = s.store.Group(gctx, repository.Audits, query.Group{Key: "referenceType"})
		return wrap("group by reference type", err)
	})
	g.Go(func() (err error) {
		users, err = s.store.Group(gctx, repository.Audits, query.Group{
			Match: query.Present{Field: "user"},
			Key:   "user",
			Limit: topN,
		})
		return wrap("group by user", err)
	})
	g.Go(func() (err error) {
		events, err = s.store.Group(gctx, repository.Audits, query.Group{Key: "event", Limit: topN})
		return wrap("group by event", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.ByReferenceType = make([]model.TypeCount, 0, len(byType))
	for _, r := range byType {
		stats.ByReferenceType = append(stats.ByReferenceType, model.TypeCount{Type: r.Key, Count: r.Count})
	}
	ranked := s.rankUsers(ctx, users)
	stats.TopUsers = make([]model.UserCount, 0, len(ranked))
	for _, r := range ranked {
		stats.TopUsers = append(stats.TopUsers, model.UserCount{User: r.ID, Name: r.Name, Count: r.Count})
	}
	stats.TopEvents = make([]model.EventCount, 0, len(events))
	for _, r := range events {
		stats.TopEvents = append(stats.TopEvents, model.EventCount{Event: r.Key, Count: r.Count})
	}
	return &stats, nil
}

// Analytics ranks APIs and users and distributes events over the last 30 days.
func (s *AggregateService) Analytics(ctx context.Context) (*model.Analytics, error) {
	window := s.since(30 * day)
	var apis, users, events []model.GroupCount

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		apis, err = s.store.Group(gctx, repository.Audits, query.Group{
			Match: query.And{query.Eq{Field: "referenceType", Value: model.RefAPI}, window},
			Key:   "referenceId",
			Limit: topN,
		})
		return wrap("group by api", err)
	})
	g.Go(func() (err error) {
		users, err = s.store.Group(gctx, repository.Audits, query.Group{
			Match: query.And{window, query.Present{Field: "user"}},
			Key:   "user",
			Limit: topN,
		})
		return wrap("group by user", err)
	})
	g.Go(func() (err error) {
		events, err = s.store.Group(gctx, repository.Audits, query.Group{Match: window, Key: "event"})
		return wrap("group by event", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.Analytics{
		TopAPIs:           s.rankAPIs(ctx, apis),
		TopUsers:          s.rankUsers(ctx, users),
		EventDistribution: events,
	}, nil
}

// Alerts returns the newest critical events of the last 24 hours, enriched.
func (s *AggregateService) Alerts(ctx context.Context) (*model.Alerts, error) {
	filter := query.And{
		s.since(day),
		query.In{Field: "event", Values: model.CriticalEvents},
	}
	docs, err := s.store.Find(ctx, repository.Audits, filter, query.FindOptions{
		Sort:  newestFirst,
		Limit: alertLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	alerts := s.enricher.Enrich(ctx, toAuditRecords(docs))
	return &model.Alerts{Alerts: alerts, Total: len(alerts)}, nil
}

func (s *AggregateService) rankUsers(ctx context.Context, rows []model.GroupCount) []model.Ranked {
	return s.rank(rows, func(id string) string {
		return DisplayName(s.resolver.ResolveUser(ctx, id, UnknownName).Name)
	})
}

func (s *AggregateService) rankAPIs(ctx context.Context, rows []model.GroupCount) []model.Ranked {
	return s.rank(rows, func(id string) string {
		return s.resolver.ResolveEntity(ctx, KindAPI, id, UnknownName)
	})
}

// rank overlays names onto group keys concurrently, keeping row order.
func (s *AggregateService) rank(rows []model.GroupCount, name func(id string) string) []model.Ranked {
	out := make([]model.Ranked, len(rows))
	var g errgroup.Group
	for i, r := range rows {
		g.Go(func() error {
			out[i] = model.Ranked{ID: r.Key, Name: name(model.IDString(r.Key)), Count: r.Count}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
