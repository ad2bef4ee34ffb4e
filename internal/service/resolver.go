package service

import (
	"context"
	"errors"
	"regexp"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/pkg/logger"
	"github.com/imannovv/gravitee-audit/internal/pkg/metrics"
	"github.com/imannovv/gravitee-audit/internal/repository"
)

// Fallback names used when an identifier is missing.
const (
	UnknownName = "Unknown"
	NoOwnerName = "N/A"
)

const systemMarker = "🤖 "

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s is a canonical 8-4-4-4-12 hex UUID.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// DisplayName flags automated and privileged accounts. Only use it for
// presentation; comparisons must use the undecorated name.
func DisplayName(name string) string {
	switch name {
	case "system", "SYSTEM", "admin", "Admin":
		return systemMarker + name
	default:
		return name
	}
}

type EntityKind string

const (
	KindUser        EntityKind = "user"
	KindAPI         EntityKind = "api"
	KindApplication EntityKind = "application"
)

var kindCollections = map[EntityKind]repository.Collection{
	KindUser:        repository.Users,
	KindAPI:         repository.APIs,
	KindApplication: repository.Applications,
}

type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Lookup is the outcome of reading one entity by id.
type Lookup struct {
	Status LookupStatus
	Doc    model.Document
	Err    error
}

// Resolver turns raw identifiers into display names. It re-reads the store on
// every call and never writes.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) lookup(ctx context.Context, kind EntityKind, id string) Lookup {
	doc, err := r.store.FindByID(ctx, kindCollections[kind], id)
	var res Lookup
	switch {
	case err == nil:
		res = Lookup{Status: LookupFound, Doc: doc}
	case errors.Is(err, repository.ErrNotFound):
		res = Lookup{Status: LookupNotFound}
	default:
		res = Lookup{Status: LookupFailed, Err: err}
		logger.Warn("identifier lookup failed", "kind", kind, "id", id, "error", err)
	}
	metrics.Lookups.WithLabelValues(string(kind), res.Status.String()).Inc()
	return res
}

// ResolvedUser is a user's display name and, when known, email.
type ResolvedUser struct {
	Name  string
	Email string
}

// ResolveUser derives a user's name. Empty ids yield fallback; ids that are
// not UUIDs (admin, system, login names) are returned as literal text.
func (r *Resolver) ResolveUser(ctx context.Context, id, fallback string) ResolvedUser {
	if id == "" {
		return ResolvedUser{Name: fallback}
	}
	if !IsUUID(id) {
		return ResolvedUser{Name: id}
	}
	res := r.lookup(ctx, KindUser, id)
	switch res.Status {
	case LookupFound:
		u := model.UserFromDocument(res.Doc)
		name := u.Name()
		if name == "" {
			name = id
		}
		return ResolvedUser{Name: name, Email: u.Email}
	case LookupNotFound, LookupFailed:
		return ResolvedUser{Name: id}
	default:
		return ResolvedUser{Name: id}
	}
}

// ResolveEntity returns an API or application name, or id when unresolved.
func (r *Resolver) ResolveEntity(ctx context.Context, kind EntityKind, id, fallback string) string {
	if id == "" {
		return fallback
	}
	res := r.lookup(ctx, kind, id)
	switch res.Status {
	case LookupFound:
		if name := res.Doc.Str("name"); name != "" {
			return name
		}
		return id
	case LookupNotFound, LookupFailed:
		return id
	default:
		return id
	}
}

// ResolveReference names the entity an audit event concerns. Only API and
// APPLICATION references are looked up; anything else keeps its id.
func (r *Resolver) ResolveReference(ctx context.Context, refType, refID string) string {
	switch refType {
	case model.RefAPI:
		return r.ResolveEntity(ctx, KindAPI, refID, refID)
	case model.RefApplication:
		return r.ResolveEntity(ctx, KindApplication, refID, refID)
	default:
		return refID
	}
}
