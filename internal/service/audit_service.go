package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
)

var ErrAuditNotFound = errors.New("audit log not found")

// DistinctFields are the audit fields exposed as filter vocabularies.
var DistinctFields = map[string]bool{"user": true, "event": true, "referenceType": true}

type AuditService struct {
	store    Store
	filters  *FilterBuilder
	enricher *Enricher
}

func NewAuditService(store Store, filters *FilterBuilder, enricher *Enricher) *AuditService {
	return &AuditService{store: store, filters: filters, enricher: enricher}
}

var newestFirst = &query.Sort{Field: "createdAt", Desc: true}

// List returns one page of matching audit records, newest first.
func (s *AuditService) List(ctx context.Context, params AuditFilterParams, page Page) (*model.AuditPage, error) {
	filter, err := s.filters.Build(ctx, params)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, repository.Audits, filter)
	if err != nil {
		return nil, fmt.Errorf("count audits: %w", err)
	}
	docs, err := s.store.Find(ctx, repository.Audits, filter, query.FindOptions{
		Sort:  newestFirst,
		Skip:  page.Skip,
		Limit: page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find audits: %w", err)
	}

	return &model.AuditPage{
		Total:  total,
		Audits: s.enricher.Enrich(ctx, toAuditRecords(docs)),
		Skip:   page.Skip,
		Limit:  page.Limit,
	}, nil
}

// Get returns one enriched audit record.
func (s *AuditService) Get(ctx context.Context, id string) (*model.EnrichedAudit, error) {
	doc, err := s.store.FindByID(ctx, repository.Audits, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find audit %s: %w", id, err)
	}
	enriched := s.enricher.Enrich(ctx, []model.AuditRecord{model.AuditRecordFromDocument(doc)})
	return &enriched[0], nil
}

// Distinct lists the non-empty values of field across all audit records, sorted.
func (s *AuditService) Distinct(ctx context.Context, field string) ([]string, error) {
	if !DistinctFields[field] {
		return nil, fmt.Errorf("field %q is not listable", field)
	}
	raw, err := s.store.Distinct(ctx, repository.Audits, field)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if text := model.IDString(v); text != "" {
			values = append(values, text)
		}
	}
	sort.Strings(values)
	return values, nil
}

func toAuditRecords(docs []model.Document) []model.AuditRecord {
	out := make([]model.AuditRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.AuditRecordFromDocument(d))
	}
	return out
}
