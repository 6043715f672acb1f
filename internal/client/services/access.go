// Package services contains application services for the profilekeeper
// client. This file defines the access service: sign-up, sign-in and
// sign-out on top of the auth store, plus the post-signup pacing window.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/stores"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
)

// DefaultPacing is how long the post-signup screen stays up.
const DefaultPacing = 2500 * time.Millisecond

// AccessService defines the account operations offered to the UI.
//
// Contract:
//   - SignUp: create an account; on success raise initiatingAccess for the
//     pacing duration.
//   - SignIn, SignInAnonymous, SignInWithCredential: start a session.
//   - Logout: end the session. The coordinator clears local profile state.
//
// Failures are *common.AuthError values carrying the provider message.
type AccessService interface {
	SignUp(ctx context.Context, email, password string) (models.Identity, error)
	SignIn(ctx context.Context, email, password string) (models.Identity, error)
	SignInAnonymous(ctx context.Context) (models.Identity, error)
	SignInWithCredential(ctx context.Context, token string) (models.Identity, error)
	Logout(ctx context.Context) error
}

// PacingFlags is the part of the profile store that gates the post-signup
// screen.
type PacingFlags interface {
	BeginInitiatingAccess() uint64
	EndInitiatingAccess(token uint64)
}

type accessService struct {
	auth   *stores.AuthStore
	flags  PacingFlags
	clock  timex.Clock
	pacing time.Duration
	log    logging.Logger
}

// NewAccessService binds the service to the auth store and the flags it
// raises after sign-up. A zero pacing uses DefaultPacing.
func NewAccessService(auth *stores.AuthStore, flags PacingFlags, clock timex.Clock, pacing time.Duration, log logging.Logger) AccessService {
	if clock == nil {
		clock = timex.RealClock()
	}
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &accessService{
		auth:   auth,
		flags:  flags,
		clock:  clock,
		pacing: pacing,
		log:    log.With("module", "access"),
	}
}

func (a *accessService) SignUp(ctx context.Context, email, password string) (models.Identity, error) {
	id, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		return models.Identity{}, err
	}

	token := a.flags.BeginInitiatingAccess()
	a.clock.AfterFunc(a.pacing, func() {
		a.flags.EndInitiatingAccess(token)
	})
	a.log.Info(ctx, "account created", "identity", id.ID)
	return id, nil
}

func (a *accessService) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	return a.auth.SignIn(ctx, email, password)
}

func (a *accessService) SignInAnonymous(ctx context.Context) (models.Identity, error) {
	return a.auth.SignInAnonymous(ctx)
}

func (a *accessService) SignInWithCredential(ctx context.Context, token string) (models.Identity, error) {
	return a.auth.SignInWithExternalCredential(ctx, token)
}

func (a *accessService) Logout(ctx context.Context) error {
	return a.auth.Logout(ctx)
}
