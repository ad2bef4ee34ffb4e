package service

import (
	"context"
	"testing"
	"time"

	"github.com/imannovv/gravitee-audit/internal/model"
	"github.com/imannovv/gravitee-audit/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func aggregateService() *AggregateService {
	s := directoryStore()
	s.Put(repository.Audits,
		model.Document{"_id": "e1", "user": "admin", "event": "API_CREATED", "referenceType": "API", "referenceId": "api-1", "createdAt": "2024-03-10T10:00:00Z"},
		model.Document{"_id": "e2", "user": aliceID, "event": "API_DELETED", "referenceType": "API", "referenceId": "api-1", "createdAt": "2024-03-09T20:00:00Z"},
		model.Document{"_id": "e3", "user": aliceID, "event": "USER_LOCKED", "referenceType": "USER", "referenceId": bobID, "createdAt": "2024-03-05T09:00:00Z"},
		model.Document{"_id": "e4", "event": "API_UPDATED", "referenceType": "API", "referenceId": "api-2", "createdAt": "2024-01-01T00:00:00Z"},
		model.Document{"_id": "e5", "user": aliceID, "event": "API_UPDATED", "referenceType": "API", "referenceId": "api-2", "createdAt": "2024-03-01T00:00:00Z"},
	)
	resolver := NewResolver(s)
	return NewAggregateService(s, resolver, NewEnricher(resolver, 4)).WithClock(func() time.Time { return fixedNow })
}

func TestStats(t *testing.T) {
	stats, err := aggregateService().Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(2), stats.Last24h)
	assert.Equal(t, int64(3), stats.Last7d)

	assert.Equal(t, []model.TypeCount{{Type: "API", Count: 4}, {Type: "USER", Count: 1}}, stats.ByReferenceType)
	assert.Equal(t, []model.UserCount{
		{User: aliceID, Name: "Alice Martin", Count: 3},
		{User: "admin", Name: "🤖 admin", Count: 1},
	}, stats.TopUsers)
	require.NotEmpty(t, stats.TopEvents)
	assert.Equal(t, model.EventCount{Event: "API_UPDATED", Count: 2}, stats.TopEvents[0])
}

func TestAnalytics(t *testing.T) {
	a, err := aggregateService().Analytics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []model.Ranked{
		{ID: "api-1", Name: "Payments", Count: 2},
		{ID: "api-2", Name: "Weather", Count: 1},
	}, a.TopAPIs)
	assert.Equal(t, []model.Ranked{
		{ID: aliceID, Name: "Alice Martin", Count: 3},
		{ID: "admin", Name: "🤖 admin", Count: 1},
	}, a.TopUsers)

	var total int64
	for _, row := range a.EventDistribution {
		total += row.Count
	}
	assert.Equal(t, int64(4), total, "events older than 30 days are excluded")
}

func TestAlertsOnlyCriticalEventsOfLastDay(t *testing.T) {
	alerts, err := aggregateService().Alerts(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, alerts.Total)
	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, "e2", alerts.Alerts[0].Record.ID)
	assert.Equal(t, "Alice Martin", alerts.Alerts[0].UserName)
	for _, a := range alerts.Alerts {
		assert.True(t, model.IsCritical(a.Record.Event))
	}
}

func TestRankUnknownKey(t *testing.T) {
	svc := aggregateService()
	rows := svc.rankAPIs(context.Background(), []model.GroupCount{{Key: nil, Count: 2}, {Key: "api-404", Count: 1}})
	assert.Equal(t, UnknownName, rows[0].Name)
	assert.Equal(t, "api-404", rows[1].Name)
}
