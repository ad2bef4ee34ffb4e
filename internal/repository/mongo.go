package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/imannovv/gravitee-audit/internal/config"
	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoURI builds the connection string from config. Credentials are escaped.
func MongoURI(cfg config.MongoConfig) string {
	if cfg.URI != "" {
		return cfg.URI
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	if cfg.AuthSource != "" {
		u.RawQuery = url.Values{"authSource": {cfg.AuthSource}}.Encode()
	}
	return u.String()
}

// NewMongoClient connects and pings the primary.
func NewMongoClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// clientOptions bounds both connecting and every operation by mongo.timeout.
func clientOptions(cfg *config.Config) *options.ClientOptions {
	return options.Client().
		ApplyURI(MongoURI(cfg.Mongo)).
		SetServerSelectionTimeout(cfg.Mongo.Timeout).
		SetConnectTimeout(cfg.Mongo.Timeout).
		SetTimeout(cfg.Mongo.Timeout)
}

// MongoStore reads the Gravitee collections. It never writes.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	names  map[Collection]string
}

func NewMongoStore(client *mongo.Client, cfg *config.Config) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Mongo.Database),
		names: map[Collection]string{
			Audits:       cfg.Collections.Audits,
			Users:        cfg.Collections.Users,
			APIs:         cfg.Collections.APIs,
			Applications: cfg.Collections.Applications,
		},
	}
}

func (s *MongoStore) coll(c Collection) *mongo.Collection {
	name, ok := s.names[c]
	if !ok {
		name = string(c)
	}
	return s.db.Collection(name)
}

func (s *MongoStore) Find(ctx context.Context, c Collection, filter query.Clause, opts query.FindOptions) (docs []model.Document, err error) {
	defer func(start time.Time) { observe(c, "find", start, err) }(time.Now())

	findOpts := options.Find()
	if opts.Sort != nil {
		dir := 1
		if opts.Sort.Desc {
			dir = -1
		}
		findOpts.SetSort(bson.D{{Key: opts.Sort.Field, Value: dir}})
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Projection) > 0 {
		proj := bson.D{}
		for _, f := range opts.Projection {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		findOpts.SetProjection(proj)
	}

	cur, err := s.coll(c).Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err = cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs = make([]model.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toDocument(m))
	}
	return docs, nil
}

func (s *MongoStore) FindByID(ctx context.Context, c Collection, id string) (doc model.Document, err error) {
	defer func(start time.Time) { observe(c, "find_one", start, err) }(time.Now())

	var raw bson.M
	err = s.coll(c).FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDocument(raw), nil
}

func (s *MongoStore) Count(ctx context.Context, c Collection, filter query.Clause) (n int64, err error) {
	defer func(start time.Time) { observe(c, "count", start, err) }(time.Now())
	return s.coll(c).CountDocuments(ctx, toBSON(filter))
}

func (s *MongoStore) Distinct(ctx context.Context, c Collection, field string) (values []any, err error) {
	defer func(start time.Time) { observe(c, "distinct", start, err) }(time.Now())

	raw, err := s.coll(c).Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, err
	}
	values = make([]any, 0, len(raw))
	for _, v := range raw {
		values = append(values, normalize(v))
	}
	return values, nil
}

func (s *MongoStore) Group(ctx context.Context, c Collection, g query.Group) (rows []model.GroupCount, err error) {
	defer func(start time.Time) { observe(c, "aggregate", start, err) }(time.Now())

	cur, err := s.coll(c).Aggregate(ctx, groupPipeline(g))
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err = cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	rows = make([]model.GroupCount, 0, len(raw))
	for _, m := range raw {
		rows = append(rows, model.GroupCount{Key: normalize(m["_id"]), Count: toInt64(m["count"])})
	}
	return rows, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
