package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// SessionTTL is how long an exchanged session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// Exchanger trades a provider session_id for a local session: it asks the
// external identity provider who the session belongs to, upserts the user,
// and stores a session token. Authentication protocol design stays on the
// provider's side.
type Exchanger struct {
	store       Store
	providerURL string
	client      *http.Client
	now         func() time.Time
}

func NewExchanger(store Store, providerURL string) *Exchanger {
	return &Exchanger{
		store:       store,
		providerURL: providerURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
	}
}

// providerIdentity is the payload the identity provider answers with.
type providerIdentity struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// Exchange validates session_id with the provider and returns the resolved
// user together with the stored session.
func (e *Exchanger) Exchange(ctx context.Context, sessionID string) (core.User, core.Session, error) {
	if sessionID == "" {
		return core.User{}, core.Session{}, fmt.Errorf("%w: session_id required", core.ErrInvalidInput)
	}

	identity, err := e.fetchIdentity(ctx, sessionID)
	if err != nil {
		return core.User{}, core.Session{}, err
	}

	user, err := e.upsertUser(ctx, identity)
	if err != nil {
		return core.User{}, core.Session{}, err
	}

	now := e.now().UTC()
	session := core.Session{
		UserID:    user.ID,
		Token:     identity.SessionToken,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	if err := e.store.InsertSession(ctx, session); err != nil {
		return core.User{}, core.Session{}, fmt.Errorf("save session: %w", err)
	}

	slog.InfoContext(ctx, "Session exchanged", "user_id", user.ID)
	return user, session, nil
}

func (e *Exchanger) fetchIdentity(ctx context.Context, sessionID string) (providerIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.providerURL, nil)
	if err != nil {
		return providerIdentity{}, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := e.client.Do(req)
	if err != nil {
		return providerIdentity{}, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return providerIdentity{}, fmt.Errorf("%w: invalid session_id", core.ErrUnauthenticated)
	}

	var identity providerIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return providerIdentity{}, fmt.Errorf("decode provider response: %w", err)
	}
	if identity.Email == "" || identity.SessionToken == "" {
		return providerIdentity{}, fmt.Errorf("%w: incomplete identity from provider", core.ErrUnauthenticated)
	}
	return identity, nil
}

func (e *Exchanger) upsertUser(ctx context.Context, identity providerIdentity) (core.User, error) {
	existing, ok, err := e.store.FindUserByEmail(ctx, identity.Email)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if ok {
		if err := e.store.UpdateUserProfile(ctx, existing.ID, identity.Name, identity.Picture); err != nil {
			return core.User{}, fmt.Errorf("update user: %w", err)
		}
		existing.Name = identity.Name
		existing.Picture = identity.Picture
		return existing, nil
	}

	user := core.User{
		ID:        newUserID(),
		Email:     identity.Email,
		Name:      identity.Name,
		Picture:   identity.Picture,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.InsertUser(ctx, user); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Logout drops the session; a missing token is not an error.
func (e *Exchanger) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return e.store.DeleteSession(ctx, token)
}

func newUserID() string {
	id := uuid.New()
	return "user_" + hex.EncodeToString(id[:])[:12]
}
