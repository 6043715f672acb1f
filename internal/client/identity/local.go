package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/client/notify"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password CreateWithPassword accepts.
const MinPasswordLength = 6

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName,omitempty"`
	PasswordHash []byte `json:"passwordHash"`
}

// LocalProvider is a Provider that keeps accounts and the current session
// in the local key/value store, so a session survives restarts.
type LocalProvider struct {
	repo   kv.Repository
	secret []byte
	cost   int
	log    logging.Logger

	mu      sync.Mutex
	current *models.Identity
	changes notify.Observers[*models.Identity]
}

type LocalOption func(*LocalProvider)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) { p.cost = cost }
}

// NewLocalProvider restores the persisted session, if any. secret verifies
// external credentials.
func NewLocalProvider(ctx context.Context, repo kv.Repository, secret []byte, log logging.Logger, opts ...LocalOption) (*LocalProvider, error) {
	if log == nil {
		log = logging.NewNop()
	}
	p := &LocalProvider{
		repo:   repo,
		secret: secret,
		cost:   bcrypt.DefaultCost,
		log:    log.With("module", "identity"),
	}
	for _, o := range opts {
		o(p)
	}

	raw, err := repo.Get(ctx, common.KeyAuthSession)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if raw != nil {
		var id models.Identity
		if err := json.Unmarshal(raw, &id); err != nil {
			p.log.Warn(ctx, "dropping unreadable session", "error", err)
			_ = repo.Delete(ctx, common.KeyAuthSession)
		} else if id.ID != "" {
			p.current = &id
			p.log.Info(ctx, "session restored", "identity", id.ID)
		}
	}
	return p, nil
}

// Current returns the signed-in identity, or nil.
func (p *LocalProvider) Current() *models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

func (p *LocalProvider) OnIdentityChange(fn func(*models.Identity)) func() {
	unsub := p.changes.Subscribe(fn)
	fn(p.Current())
	return unsub
}

func (p *LocalProvider) CreateWithPassword(ctx context.Context, email, password string) (models.Identity, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return models.Identity{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return models.Identity{}, ErrWeakPassword
	}

	existing, err := p.repo.Get(ctx, accountKey(email))
	if err != nil {
		return models.Identity{}, err
	}
	if existing != nil {
		return models.Identity{}, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return models.Identity{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := newID()
	if err != nil {
		return models.Identity{}, err
	}

	acc := account{ID: id, Email: email, PasswordHash: hash}
	ident := models.Identity{ID: id, Email: email}

	accRaw, err := json.Marshal(acc)
	if err != nil {
		return models.Identity{}, err
	}
	sessRaw, err := json.Marshal(ident)
	if err != nil {
		return models.Identity{}, err
	}
	if err := p.repo.SetAll(ctx, map[string][]byte{
		accountKey(email):     accRaw,
		common.KeyAuthSession: sessRaw,
	}); err != nil {
		return models.Identity{}, fmt.Errorf("save account: %w", err)
	}

	p.log.Info(ctx, "account created", "identity", id)
	p.set(ident)
	return ident, nil
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (models.Identity, error) {
	email = normalizeEmail(email)
	raw, err := p.repo.Get(ctx, accountKey(email))
	if err != nil {
		return models.Identity{}, err
	}
	if raw == nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	var acc account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return models.Identity{}, fmt.Errorf("decode account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return models.Identity{}, ErrInvalidCredentials
	}

	ident := models.Identity{ID: acc.ID, Email: acc.Email, DisplayName: acc.DisplayName}
	if err := p.saveSession(ctx, ident); err != nil {
		return models.Identity{}, err
	}
	p.set(ident)
	return ident, nil
}

func (p *LocalProvider) SignInAnonymous(ctx context.Context) (models.Identity, error) {
	id, err := newID()
	if err != nil {
		return models.Identity{}, err
	}
	ident := models.Identity{ID: id, Anonymous: true}
	if err := p.saveSession(ctx, ident); err != nil {
		return models.Identity{}, err
	}
	p.set(ident)
	return ident, nil
}

func (p *LocalProvider) SignInWithCredential(ctx context.Context, token string) (models.Identity, error) {
	ident, err := ParseCredential(token, p.secret)
	if err != nil {
		return models.Identity{}, err
	}
	if err := p.saveSession(ctx, ident); err != nil {
		return models.Identity{}, err
	}
	p.set(ident)
	return ident, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.repo.Delete(ctx, common.KeyAuthSession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.changes.Notify(nil)
	return nil
}

func (p *LocalProvider) saveSession(ctx context.Context, ident models.Identity) error {
	raw, err := json.Marshal(ident)
	if err != nil {
		return err
	}
	if err := p.repo.Set(ctx, common.KeyAuthSession, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *LocalProvider) set(ident models.Identity) {
	p.mu.Lock()
	p.current = copyIdentity(&ident)
	p.mu.Unlock()
	p.changes.Notify(copyIdentity(&ident))
}

func copyIdentity(i *models.Identity) *models.Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountKey(email string) string {
	return common.KeyAccountPrefix + email
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("identity id: %w", err)
	}
	return id.String(), nil
}
