// Package identity defines the identity provider the auth store talks to and
// a local, KV-backed implementation of it.
package identity

import (
	"context"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
)

// Provider is the authentication collaborator. It owns the current
// identity and reports every change of it, nil meaning signed out.
//
// OnIdentityChange delivers the current state to fn before returning and
// every later change afterwards.
type Provider interface {
	OnIdentityChange(fn func(*models.Identity)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (models.Identity, error)
	CreateWithPassword(ctx context.Context, email, password string) (models.Identity, error)
	SignInAnonymous(ctx context.Context) (models.Identity, error)
	SignInWithCredential(ctx context.Context, token string) (models.Identity, error)
	SignOut(ctx context.Context) error
}
