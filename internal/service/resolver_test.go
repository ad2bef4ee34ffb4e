package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "🤖 admin", DisplayName("admin"))
	assert.Equal(t, "🤖 SYSTEM", DisplayName("SYSTEM"))
	assert.Equal(t, "administrator", DisplayName("administrator"))
	assert.Equal(t, "Alice Martin", DisplayName("Alice Martin"))
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID(aliceID))
	assert.True(t, IsUUID("AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"))
	assert.False(t, IsUUID("admin"))
	assert.False(t, IsUUID(aliceID+"0"))
	assert.False(t, IsUUID("11111111222233334444555555555555"))
}

func TestResolveUser(t *testing.T) {
	r := NewResolver(directoryStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		fallback string
		want     ResolvedUser
	}{
		{"empty id uses fallback", "", UnknownName, ResolvedUser{Name: UnknownName}},
		{"login names are literal", "admin", UnknownName, ResolvedUser{Name: "admin"}},
		{"full name wins", aliceID, UnknownName, ResolvedUser{Name: "Alice Martin", Email: "alice@example.com"}},
		{"display name next", bobID, UnknownName, ResolvedUser{Name: "Bob B", Email: "bob@example.com"}},
		{"unknown uuid resolves to itself", ghostID, UnknownName, ResolvedUser{Name: ghostID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveUser(ctx, tt.id, tt.fallback))
		})
	}
}

func TestResolveUserStoreFailure(t *testing.T) {
	r := NewResolver(failingStore{inner: directoryStore()})
	assert.Equal(t, ResolvedUser{Name: aliceID}, r.ResolveUser(context.Background(), aliceID, UnknownName))
}

func TestResolveReference(t *testing.T) {
	r := NewResolver(directoryStore())
	ctx := context.Background()

	assert.Equal(t, "Payments", r.ResolveReference(ctx, "API", "api-1"))
	assert.Equal(t, "Mobile", r.ResolveReference(ctx, "APPLICATION", "app-1"))
	assert.Equal(t, "app-404", r.ResolveReference(ctx, "APPLICATION", "app-404"))
	assert.Equal(t, "env-1", r.ResolveReference(ctx, "ENVIRONMENT", "env-1"))
	assert.Equal(t, "N/A", r.ResolveEntity(ctx, KindAPI, "", "N/A"))
}
