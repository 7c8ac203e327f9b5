package auth

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Store is the session/user surface the auth package needs from the ledger
// store.
type Store interface {
	InsertUser(ctx context.Context, u core.User) error
	UpdateUserProfile(ctx context.Context, userID, name, picture string) error
	FindUserByEmail(ctx context.Context, email string) (core.User, bool, error)
	FindUserByID(ctx context.Context, userID string) (core.User, bool, error)
	InsertSession(ctx context.Context, s core.Session) error
	FindSession(ctx context.Context, token string) (core.Session, bool, error)
	DeleteSession(ctx context.Context, token string) error
}

// Resolver turns a request's session token into a resolved identity. The
// implementation is chosen once at startup; request handlers never branch on
// an auth mode.
type Resolver interface {
	Resolve(ctx context.Context, token string) (core.User, error)
}

// SessionResolver validates tokens against the session store.
type SessionResolver struct {
	store Store
	now   func() time.Time
}

func NewSessionResolver(store Store) *SessionResolver {
	return &SessionResolver{store: store, now: time.Now}
}

func (r *SessionResolver) Resolve(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrUnauthenticated
	}

	session, ok, err := r.store.FindSession(ctx, token)
	if err != nil {
		return core.User{}, fmt.Errorf("find session: %w", err)
	}
	if !ok {
		return core.User{}, fmt.Errorf("%w: invalid session", core.ErrUnauthenticated)
	}
	if session.ExpiresAt.Before(r.now()) {
		return core.User{}, core.ErrSessionExpired
	}

	user, ok, err := r.store.FindUserByID(ctx, session.UserID)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if !ok {
		return core.User{}, fmt.Errorf("%w: user %s", core.ErrNotFound, session.UserID)
	}
	return user, nil
}

// StaticResolver returns one fixed identity for every request. Development
// only; main refuses to construct it unless the auth mode explicitly asks
// for it.
type StaticResolver struct {
	user core.User
}

func NewStaticResolver(user core.User) *StaticResolver {
	return &StaticResolver{user: user}
}

func (r *StaticResolver) Resolve(_ context.Context, _ string) (core.User, error) {
	return r.user, nil
}
