package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// fakeProvider answers the session-data lookup the way the identity provider
// does: identity for known session ids, 401 otherwise.
func fakeProvider(t *testing.T, sessions map[string]providerIdentity) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := sessions[r.Header.Get("X-Session-ID")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identity)
	}))
}

func TestExchangeCreatesUserAndSession(t *testing.T) {
	provider := fakeProvider(t, map[string]providerIdentity{
		"sess-1": {Email: "a@b.c", Name: "Alice", Picture: "p.png", SessionToken: "tok-1"},
	})
	defer provider.Close()

	store := storage.NewMemoryStore()
	ex := NewExchanger(store, provider.URL)
	ctx := context.Background()

	user, session, err := ex.Exchange(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", user.Email)
	assert.True(t, strings.HasPrefix(user.ID, "user_"))
	assert.Len(t, user.ID, len("user_")+12)
	assert.Equal(t, "tok-1", session.Token)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, SessionTTL, session.ExpiresAt.Sub(session.CreatedAt))

	// The stored session resolves.
	resolved, err := NewSessionResolver(store).Resolve(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestExchangeUpdatesExistingUser(t *testing.T) {
	provider := fakeProvider(t, map[string]providerIdentity{
		"sess-1": {Email: "a@b.c", Name: "Alice", SessionToken: "tok-1"},
		"sess-2": {Email: "a@b.c", Name: "Alice Renamed", Picture: "new.png", SessionToken: "tok-2"},
	})
	defer provider.Close()

	store := storage.NewMemoryStore()
	ex := NewExchanger(store, provider.URL)
	ctx := context.Background()

	first, _, err := ex.Exchange(ctx, "sess-1")
	require.NoError(t, err)

	second, _, err := ex.Exchange(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice Renamed", second.Name)
	assert.Equal(t, "new.png", second.Picture)
}

func TestExchangeRejectsInvalidSessionID(t *testing.T) {
	provider := fakeProvider(t, nil)
	defer provider.Close()

	ex := NewExchanger(storage.NewMemoryStore(), provider.URL)

	_, _, err := ex.Exchange(context.Background(), "bogus")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	_, _, err = ex.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestExchangeRejectsIncompleteIdentity(t *testing.T) {
	provider := fakeProvider(t, map[string]providerIdentity{
		"sess-1": {Email: "", SessionToken: "tok-1"},
	})
	defer provider.Close()

	ex := NewExchanger(storage.NewMemoryStore(), provider.URL)
	_, _, err := ex.Exchange(context.Background(), "sess-1")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestLogout(t *testing.T) {
	store := storage.NewMemoryStore()
	ex := NewExchanger(store, "http://unused.localhost")
	ctx := context.Background()

	seedSession(t, store, "tok-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, ex.Logout(ctx, "tok-1"))

	_, ok, err := store.FindSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty and unknown tokens are fine.
	assert.NoError(t, ex.Logout(ctx, ""))
	assert.NoError(t, ex.Logout(ctx, "missing"))
}
