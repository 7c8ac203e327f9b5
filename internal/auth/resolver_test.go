package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedSession(t *testing.T, store *storage.MemoryStore, token string, expiresAt time.Time) core.User {
	t.Helper()
	ctx := context.Background()
	user := core.User{ID: "user_abc123def456", Email: "a@b.c", Name: "A", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.InsertUser(ctx, user))
	require.NoError(t, store.InsertSession(ctx, core.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}))
	return user
}

func TestSessionResolverResolve(t *testing.T) {
	store := storage.NewMemoryStore()
	user := seedSession(t, store, "tok1", time.Now().UTC().Add(time.Hour))
	resolver := NewSessionResolver(store)

	got, err := resolver.Resolve(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestSessionResolverEmptyToken(t *testing.T) {
	resolver := NewSessionResolver(storage.NewMemoryStore())
	_, err := resolver.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestSessionResolverUnknownToken(t *testing.T) {
	resolver := NewSessionResolver(storage.NewMemoryStore())
	_, err := resolver.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestSessionResolverExpired(t *testing.T) {
	store := storage.NewMemoryStore()
	seedSession(t, store, "tok1", time.Now().UTC().Add(-time.Minute))
	resolver := NewSessionResolver(store)

	_, err := resolver.Resolve(context.Background(), "tok1")
	assert.ErrorIs(t, err, core.ErrSessionExpired)
}

func TestStaticResolver(t *testing.T) {
	fixed := core.User{ID: "user_dev", Email: "dev@localhost", Name: "Dev"}
	resolver := NewStaticResolver(fixed)

	got, err := resolver.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, fixed.ID, got.ID)

	got, err = resolver.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, fixed.ID, got.ID)
}
