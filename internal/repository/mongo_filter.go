package repository

import (
	"fmt"
	"regexp"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toBSON translates a clause tree into a Mongo filter document.
func toBSON(c query.Clause) bson.D {
	switch c := c.(type) {
	case nil, query.MatchAll:
		return bson.D{}
	case query.Eq:
		return bson.D{{Key: c.Field, Value: c.Value}}
	case query.In:
		return bson.D{{Key: c.Field, Value: bson.D{{Key: "$in", Value: c.Values}}}}
	case query.Range:
		bounds := bson.D{}
		if c.From != nil {
			bounds = append(bounds, bson.E{Key: "$gte", Value: *c.From})
		}
		if c.To != nil {
			bounds = append(bounds, bson.E{Key: "$lte", Value: *c.To})
		}
		return bson.D{{Key: c.Field, Value: bounds}}
	case query.Contains:
		return bson.D{{Key: c.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(c.Text), Options: "i"}}}
	case query.Present:
		return bson.D{{Key: c.Field, Value: bson.D{
			{Key: "$exists", Value: true},
			{Key: "$ne", Value: nil},
		}}}
	case query.Or:
		return bson.D{{Key: "$or", Value: toBSONList(c)}}
	case query.And:
		return bson.D{{Key: "$and", Value: toBSONList(c)}}
	default:
		panic(fmt.Sprintf("repository: unknown clause %T", c))
	}
}

func toBSONList(clauses []query.Clause) bson.A {
	out := make(bson.A, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, toBSON(c))
	}
	return out
}

// idFilter matches a string _id, or an ObjectId when id is valid hex.
func idFilter(id string) bson.D {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{id, oid}}}}}
	}
	return bson.D{{Key: "_id", Value: id}}
}

func groupPipeline(g query.Group) bson.A {
	pipeline := bson.A{}
	if g.Match != nil {
		if _, all := g.Match.(query.MatchAll); !all {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: toBSON(g.Match)}})
		}
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + g.Key},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	)
	if g.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: g.Limit}})
	}
	return pipeline
}

// normalize converts driver types into the plain Go values model.Document promises.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Decimal128:
		return t.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func toDocument(m bson.M) model.Document {
	return model.Document(normalizeMap(m))
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
