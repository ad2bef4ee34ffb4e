package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/query"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildShapes(t *testing.T) {
	b := NewFilterBuilder(directoryStore())
	ctx := context.Background()

	c, err := b.Build(ctx, AuditFilterParams{})
	require.NoError(t, err)
	assert.Equal(t, query.MatchAll{}, c)

	c, err = b.Build(ctx, AuditFilterParams{Event: "API_CREATED"})
	require.NoError(t, err)
	assert.Equal(t, query.Eq{Field: "event", Value: "API_CREATED"}, c)

	c, err = b.Build(ctx, AuditFilterParams{Event: "API_CREATED", ReferenceType: "API"})
	require.NoError(t, err)
	and, ok := c.(query.And)
	require.True(t, ok)
	assert.Len(t, and, 2)
}

func TestBuildEndDateCoversWholeDay(t *testing.T) {
	b := NewFilterBuilder(directoryStore())
	c, err := b.Build(context.Background(), AuditFilterParams{StartDate: "2024-03-01", EndDate: "2024-03-10"})
	require.NoError(t, err)

	r, ok := c.(query.Range)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *r.From)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC), *r.To)

	assert.True(t, query.Match(c, map[string]any{"createdAt": time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)}))
	assert.False(t, query.Match(c, map[string]any{"createdAt": time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}))
}

func TestBuildEndDateOnlyBoundary(t *testing.T) {
	store := directoryStore()
	store.Put(repository.Audits,
		model.Document{"_id": "in", "event": "API_UPDATED", "createdAt": "2024-03-05T23:59:59.998Z"},
		model.Document{"_id": "last", "event": "API_UPDATED", "createdAt": "2024-03-05T23:59:59.999Z"},
		model.Document{"_id": "out", "event": "API_UPDATED", "createdAt": "2024-03-06T00:00:00.000Z"},
	)

	c, err := NewFilterBuilder(store).Build(context.Background(), AuditFilterParams{EndDate: "2024-03-05"})
	require.NoError(t, err)
	r, ok := c.(query.Range)
	require.True(t, ok)
	assert.Nil(t, r.From)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999_000_000, time.UTC), *r.To)

	docs, err := store.Find(context.Background(), repository.Audits, c, query.FindOptions{})
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Str("_id"))
	}
	assert.ElementsMatch(t, []string{"in", "last"}, ids)
}

func TestBuildRejectsBadDate(t *testing.T) {
	b := NewFilterBuilder(directoryStore())
	_, err := b.Build(context.Background(), AuditFilterParams{StartDate: "yesterday"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrInvalidRequest, appErr.Type)
}

func TestActorFilterMatchesIdsAndAliases(t *testing.T) {
	store := directoryStore()
	store.Put(repository.Audits,
		model.Document{"_id": "by-id", "user": aliceID, "event": "API_CREATED"},
		model.Document{"_id": "by-login", "user": "amartin", "event": "API_UPDATED"},
		model.Document{"_id": "as-target", "user": "bobby", "event": "MEMBERSHIP_CREATED", "properties": map[string]any{"USER": aliceID}},
		model.Document{"_id": "unrelated", "user": "bobby", "event": "API_UPDATED"},
		model.Document{"_id": "nobody", "event": "API_UPDATED"},
	)

	c, err := NewFilterBuilder(store).Build(context.Background(), AuditFilterParams{User: "alice"})
	require.NoError(t, err)

	docs, err := store.Find(context.Background(), repository.Audits, c, query.FindOptions{})
	require.NoError(t, err)
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Str("_id"))
	}
	assert.ElementsMatch(t, []string{"by-id", "by-login", "as-target"}, ids)
}

func TestActorFilterFallsBackToSubstring(t *testing.T) {
	store := directoryStore()
	store.Put(repository.Audits,
		model.Document{"_id": "sys", "user": "system"},
		model.Document{"_id": "other", "user": "admin"},
	)

	c, err := NewFilterBuilder(store).Build(context.Background(), AuditFilterParams{User: "SYST"})
	require.NoError(t, err)
	n, err := store.Count(context.Background(), repository.Audits, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestActorFilterStoreFailure(t *testing.T) {
	b := NewFilterBuilder(failingStore{inner: directoryStore()})
	_, err := b.Build(context.Background(), AuditFilterParams{User: "alice"})
	assert.ErrorIs(t, err, errBroken)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-10T08:30:00+02:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC)))

	end := EndOfDay(got)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, got.Location(), end.Location())

	_, err = ParseDate("10/03/2024")
	assert.Error(t, err)
}
