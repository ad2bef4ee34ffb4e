package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
)

// timestampFields are parsed from RFC 3339 text when documents are loaded.
var timestampFields = []string{"createdAt", "updatedAt"}

// MemoryStore evaluates clauses in process. It backs offline mode (seeded
// from a fixture file) and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Collection][]model.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[Collection][]model.Document)}
}

// Fixture is the on-disk layout read by LoadFixture.
type Fixture struct {
	Audits       []map[string]any `json:"audits"`
	Users        []map[string]any `json:"users"`
	APIs         []map[string]any `json:"apis"`
	Applications []map[string]any `json:"applications"`
}

// LoadFixture builds a MemoryStore from a JSON fixture file.
func LoadFixture(path string) (*MemoryStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	s := NewMemoryStore()
	s.Put(Audits, toDocuments(f.Audits)...)
	s.Put(Users, toDocuments(f.Users)...)
	s.Put(APIs, toDocuments(f.APIs)...)
	s.Put(Applications, toDocuments(f.Applications)...)
	return s, nil
}

func toDocuments(in []map[string]any) []model.Document {
	out := make([]model.Document, 0, len(in))
	for _, m := range in {
		out = append(out, model.Document(m))
	}
	return out
}

// Put appends documents, parsing textual timestamps.
func (s *MemoryStore) Put(c Collection, docs ...model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		d = d.Clone()
		for _, f := range timestampFields {
			if text, ok := d[f].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
					d[f] = t.UTC()
				}
			}
		}
		s.docs[c] = append(s.docs[c], d)
	}
}

func (s *MemoryStore) matching(c Collection, filter query.Clause) []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Document, 0)
	for _, d := range s.docs[c] {
		if query.Match(filter, d) {
			out = append(out, d)
		}
	}
	return out
}

func (s *MemoryStore) Find(ctx context.Context, c Collection, filter query.Clause, opts query.FindOptions) (docs []model.Document, err error) {
	defer func(start time.Time) { observe(c, "find", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	docs = s.matching(c, filter)
	if opts.Sort != nil {
		field, desc := opts.Sort.Field, opts.Sort.Desc
		sort.SliceStable(docs, func(i, j int) bool {
			cmp := compareValues(docs[i][field], docs[j][field])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(docs)) {
			docs = docs[:0]
		} else {
			docs = docs[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(docs)) {
		docs = docs[:opts.Limit]
	}

	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, project(d, opts.Projection))
	}
	return out, nil
}

func project(d model.Document, fields []string) model.Document {
	if len(fields) == 0 {
		return d.Clone()
	}
	out := model.Document{"_id": d["_id"]}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

func (s *MemoryStore) FindByID(ctx context.Context, c Collection, id string) (doc model.Document, err error) {
	defer func(start time.Time) { observe(c, "find_one", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	found := s.matching(c, query.Eq{Field: "_id", Value: id})
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0].Clone(), nil
}

func (s *MemoryStore) Count(ctx context.Context, c Collection, filter query.Clause) (n int64, err error) {
	defer func(start time.Time) { observe(c, "count", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(s.matching(c, filter))), nil
}

// Distinct skips documents without the field, like Mongo.
func (s *MemoryStore) Distinct(ctx context.Context, c Collection, field string) (values []any, err error) {
	defer func(start time.Time) { observe(c, "distinct", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	values = []any{}
	for _, d := range s.matching(c, query.MatchAll{}) {
		v, ok := query.Lookup(d, field)
		if !ok {
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values, nil
}

// Group orders ties by first appearance so results are deterministic.
func (s *MemoryStore) Group(ctx context.Context, c Collection, g query.Group) (rows []model.GroupCount, err error) {
	defer func(start time.Time) { observe(c, "aggregate", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	index := map[string]int{}
	rows = []model.GroupCount{}
	for _, d := range s.matching(c, g.Match) {
		v, _ := query.Lookup(d, g.Key)
		key := fmt.Sprintf("%T:%v", v, v)
		if i, ok := index[key]; ok {
			rows[i].Count++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, model.GroupCount{Key: v, Count: 1})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	if g.Limit > 0 && g.Limit < int64(len(rows)) {
		rows = rows[:g.Limit]
	}
	return rows, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

// compareValues orders times, strings and numbers; missing values sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if ta, ok := query.AsTime(a); ok {
		if tb, ok := query.AsTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
