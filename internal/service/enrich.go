package service

import (
	"context"

	"github.com/imannovv/gravitee-audit/internal/model"
	"golang.org/x/sync/errgroup"
)

const defaultEnrichConcurrency = 16

// Enricher layers resolved names and the decoded patch onto audit records.
type Enricher struct {
	resolver    *Resolver
	concurrency int
}

func NewEnricher(resolver *Resolver, concurrency int) *Enricher {
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	return &Enricher{resolver: resolver, concurrency: concurrency}
}

// Enrich returns one enriched record per input, in input order. A failed
// lookup only degrades the field it feeds.
func (e *Enricher) Enrich(ctx context.Context, records []model.AuditRecord) []model.EnrichedAudit {
	out := make([]model.EnrichedAudit, len(records))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		g.Go(func() error {
			out[i] = e.enrichOne(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, rec model.AuditRecord) model.EnrichedAudit {
	res := model.EnrichedAudit{Record: rec}
	var g errgroup.Group

	g.Go(func() error {
		actor := e.resolver.ResolveUser(ctx, rec.User, UnknownName)
		res.UserName = DisplayName(actor.Name)
		if actor.Email != "" {
			email := actor.Email
			res.UserEmail = &email
		}
		return nil
	})

	if target := rec.TargetUser(); target != "" {
		g.Go(func() error {
			name := e.resolver.ResolveUser(ctx, target, target).Name
			res.TargetUserName = &name
			return nil
		})
	}

	if rec.ReferenceID != "" {
		g.Go(func() error {
			name := e.resolver.ResolveReference(ctx, rec.ReferenceType, rec.ReferenceID)
			res.ReferenceName = &name
			return nil
		})
	}

	if rec.Patch != nil {
		g.Go(func() error {
			res.ParsedPatch = DecodePatch(rec.Patch)
			return nil
		})
	}

	_ = g.Wait()
	return res
}
