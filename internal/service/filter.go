package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
)

// AuditFilterParams are the optional list filters. Empty strings are ignored.
type AuditFilterParams struct {
	User          string
	Event         string
	ReferenceType string
	StartDate     string
	EndDate       string
}

// FilterBuilder turns filter parameters into a clause over the audit collection.
type FilterBuilder struct {
	store Store
}

func NewFilterBuilder(store Store) *FilterBuilder {
	return &FilterBuilder{store: store}
}

// Build returns MatchAll for no parameters, the bare clause for one and an
// And of all clauses otherwise. The actor clause reads the user directory.
func (b *FilterBuilder) Build(ctx context.Context, p AuditFilterParams) (query.Clause, error) {
	clauses := make([]query.Clause, 0, 4)

	if p.Event != "" {
		clauses = append(clauses, query.Eq{Field: "event", Value: p.Event})
	}
	if p.ReferenceType != "" {
		clauses = append(clauses, query.Eq{Field: "referenceType", Value: p.ReferenceType})
	}

	dates, err := dateRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	if dates != nil {
		clauses = append(clauses, dates)
	}

	if text := strings.TrimSpace(p.User); text != "" {
		actor, err := b.actorClause(ctx, text)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, actor)
	}

	return query.Combine(clauses...), nil
}

// actorClause matches rows recorded under a user's id or login name, as actor
// or as the secondary subject in properties.USER.
func (b *FilterBuilder) actorClause(ctx context.Context, text string) (query.Clause, error) {
	docs, err := b.store.Find(ctx, repository.Users,
		query.AnyContains(text, model.UserSearchFields...),
		query.FindOptions{Projection: []string{"_id", "sourceId", "username"}},
	)
	if err != nil {
		return nil, fmt.Errorf("search users for actor filter: %w", err)
	}

	ids := make([]string, 0, len(docs))
	aliases := make([]string, 0, len(docs))
	seen := map[string]bool{}
	for _, d := range docs {
		u := model.UserFromDocument(d)
		if u.ID != "" {
			ids = append(ids, u.ID)
		}
		for _, alias := range u.LoginAliases() {
			if !seen[alias] {
				seen[alias] = true
				aliases = append(aliases, alias)
			}
		}
	}

	target := "properties." + model.PropertyUser
	or := query.Or{query.Contains{Field: "user", Text: text}}
	if len(ids) > 0 {
		or = append(or,
			query.In{Field: "user", Values: ids},
			query.In{Field: target, Values: ids},
		)
	}
	if len(aliases) > 0 {
		or = append(or,
			query.In{Field: "user", Values: aliases},
			query.In{Field: target, Values: aliases},
		)
	}
	return or, nil
}

// dateRange bounds createdAt. The end date is pushed to the last millisecond
// of its day so a bare date covers the whole day.
func dateRange(start, end string) (query.Clause, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	r := query.Range{Field: "createdAt"}
	if start != "" {
		from, err := ParseDate(start)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(fmt.Sprintf("invalid startDate %q", start))
		}
		r.From = &from
	}
	if end != "" {
		to, err := ParseDate(end)
		if err != nil {
			return nil, apperrors.NewInvalidRequest(fmt.Sprintf("invalid endDate %q", end))
		}
		to = EndOfDay(to)
		r.To = &to
	}
	return r, nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseDate accepts a bare date (UTC midnight) or an RFC 3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// EndOfDay is 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
