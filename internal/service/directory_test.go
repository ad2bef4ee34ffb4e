package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryAPIs(t *testing.T) {
	svc := NewDirectoryService(directoryStore(), NewResolver(directoryStore()), 2)
	ctx := context.Background()

	all, err := svc.APIs(ctx, "", Page{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "Weather", all.Items[0].Str("name"), "most recently updated first")

	found, err := svc.APIs(ctx, "CARD", Page{Limit: 50})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Payments", found.Items[0].Str("name"))
}

func TestDirectoryApplicationsOwners(t *testing.T) {
	store := directoryStore()
	svc := NewDirectoryService(store, NewResolver(store), 2)

	page, err := svc.Applications(context.Background(), "", Page{Limit: 50})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.Equal(t, "Backoffice", page.Items[0].Doc.Str("name"))
	assert.Equal(t, ghostID, page.Items[0].OwnerID)
	assert.Equal(t, ghostID, page.Items[0].OwnerName)

	assert.Equal(t, "Orphan", page.Items[1].Doc.Str("name"))
	assert.Equal(t, "", page.Items[1].OwnerID)
	assert.Equal(t, NoOwnerName, page.Items[1].OwnerName)

	assert.Equal(t, aliceID, page.Items[2].OwnerID)
	assert.Equal(t, "Alice Martin", page.Items[2].OwnerName)

	out, err := json.Marshal(page)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.EqualValues(t, 3, decoded["total"])
	apps := decoded["applications"].([]any)
	assert.Nil(t, apps[1].(map[string]any)["ownerId"])
}

func TestDirectoryApplication(t *testing.T) {
	store := directoryStore()
	svc := NewDirectoryService(store, NewResolver(store), 0)

	app, err := svc.Application(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Martin", app.OwnerName)

	_, err = svc.Application(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestDirectoryUsers(t *testing.T) {
	store := directoryStore()
	svc := NewDirectoryService(store, NewResolver(store), 0)

	page, err := svc.Users(context.Background(), "bob@", Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, bobID, page.Items[0].Str("_id"))

	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"users":[`)
}
