// Package identity resolves who owns the cart, favorites and orders a request
// touches. A deployment picks one policy: logged-in users, or anonymous browser
// tokens. Downstream code only sees an Identity.
package identity

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
)

type Kind string

const (
	KindUser      Kind = "user"
	KindAnonymous Kind = "anonymous"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid identity token")
)

type Identity struct {
	ID   uuid.UUID `json:"id"`
	Kind Kind      `json:"kind"`
}

func User(userID uuid.UUID) Identity {
	return Identity{ID: userID, Kind: KindUser}
}

func Anonymous(id uuid.UUID) Identity {
	return Identity{ID: id, Kind: KindAnonymous}
}

func (i Identity) IsZero() bool {
	return i.ID == uuid.Nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}

// Require returns the request identity or ErrUnauthenticated.
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}
