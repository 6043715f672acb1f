package stores

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/identity"
	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
)

// AuthState is a snapshot of the auth store.
type AuthState struct {
	Identity        *models.Identity
	IsAuthenticated bool
	// Loading is true until the provider reported the initial identity.
	Loading bool
}

// IdentityID returns the current identity id, or "".
func (s AuthState) IdentityID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

func (s AuthState) clone() AuthState {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// AuthStore mirrors the identity provider. Provider failures are returned
// as *common.AuthError and never retried.
type AuthStore struct {
	provider identity.Provider
	log      logging.Logger

	once  sync.Once
	mu    sync.Mutex
	state AuthState
	unsub func()
	obs   notify.Observers[AuthState]
}

func NewAuthStore(provider identity.Provider, log logging.Logger) *AuthStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &AuthStore{
		provider: provider,
		log:      log.With("module", "auth"),
		state:    AuthState{Loading: true},
	}
}

// Start subscribes to the provider. Calls after the first are no-ops.
func (s *AuthStore) Start() {
	s.once.Do(func() {
		unsub := s.provider.OnIdentityChange(s.apply)
		s.mu.Lock()
		s.unsub = unsub
		s.mu.Unlock()
	})
}

// Close stops listening to the provider.
func (s *AuthStore) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (s *AuthStore) apply(id *models.Identity) {
	s.mu.Lock()
	next := AuthState{IsAuthenticated: id != nil}
	if id != nil {
		c := *id
		next.Identity = &c
	}
	s.state = next
	snap := s.state.clone()
	s.mu.Unlock()

	s.log.Debug(context.Background(), "identity changed", "identity", snap.IdentityID())
	s.obs.Notify(snap)
}

func (s *AuthStore) Snapshot() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *AuthStore) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	return s.obs.Subscribe(fn)
}

func (s *AuthStore) SignIn(ctx context.Context, email, password string) (models.Identity, error) {
	return s.call(ctx, "sign in", func() (models.Identity, error) {
		return s.provider.SignInWithPassword(ctx, email, password)
	})
}

func (s *AuthStore) SignUp(ctx context.Context, email, password string) (models.Identity, error) {
	return s.call(ctx, "sign up", func() (models.Identity, error) {
		return s.provider.CreateWithPassword(ctx, email, password)
	})
}

func (s *AuthStore) SignInAnonymous(ctx context.Context) (models.Identity, error) {
	return s.call(ctx, "anonymous sign in", func() (models.Identity, error) {
		return s.provider.SignInAnonymous(ctx)
	})
}

func (s *AuthStore) SignInWithExternalCredential(ctx context.Context, token string) (models.Identity, error) {
	return s.call(ctx, "credential sign in", func() (models.Identity, error) {
		return s.provider.SignInWithCredential(ctx, token)
	})
}

func (s *AuthStore) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Warn(ctx, "sign out failed", "error", err)
		return common.NewAuthError(err)
	}
	return nil
}

func (s *AuthStore) call(ctx context.Context, op string, fn func() (models.Identity, error)) (models.Identity, error) {
	id, err := fn()
	if err != nil {
		s.log.Warn(ctx, op+" failed", "error", err)
		return models.Identity{}, common.NewAuthError(err)
	}
	return id, nil
}
